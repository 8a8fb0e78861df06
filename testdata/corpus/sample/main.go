package main

import (
	"fmt"
	"os"
)

// BAD: Unused variable
var unusedVar = 42

func main() {
	values := []int32{1, 2, 3}

	if len(os.Args) > 1 && os.Args[1] == "walk" {
		processData(values)
		return
	}

	// BAD: Reads past the end of a three-element slice
	fmt.Println("Value:", values[10])

	// BAD: Explicit panic behind an always-true condition
	if true {
		panic("Intentional panic for testing!")
	}

	processData(values)
}
