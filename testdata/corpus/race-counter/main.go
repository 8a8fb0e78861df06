package main

import (
	"fmt"
	"time"
)

// BAD: Shared counter mutated by two goroutines without synchronization
var counter int

func increment() {
	for i := 0; i < 1000; i++ {
		counter++
	}
}

func main() {
	go increment()
	go increment()

	time.Sleep(100 * time.Millisecond)
	fmt.Printf("Counter: %d\n", counter)
}
