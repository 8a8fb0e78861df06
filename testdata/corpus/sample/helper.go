package main

import "fmt"

// BAD: Unused variable
var unusedResult = 100

func processData(data []int32) {
	// BAD: Unchecked multiplication, wraps instead of aborting
	for _, v := range data {
		result := v * 1000000
		fmt.Println("Result:", result)
	}

	// BAD: Explicit panic call
	panic("Another intentional panic!")

	// BAD: Unreachable code after panic
	fmt.Println("This will never execute")
}
