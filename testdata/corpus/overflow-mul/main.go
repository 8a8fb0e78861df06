package main

import "fmt"

func main() {
	values := []int32{3000, -2500}

	// BAD: Unchecked multiplication, both products wrap
	for _, v := range values {
		fmt.Println("Result:", v*1000000)
	}
}
