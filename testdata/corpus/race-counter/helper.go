package main

import "fmt"

// BAD: Unused variable
var unusedGlobal = "never used"

// BAD: Dead code, nothing calls this
func ProcessData(data []int) {
	// BAD: No bounds check, aborts for short slices
	result := data[10]
	fmt.Println(result)

	// BAD: Goroutine leak, no way to stop this
	go func() {
		for {
		}
	}()
}
