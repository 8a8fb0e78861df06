package main

import (
	"fmt"
	"os"
	"strconv"
)

func main() {
	divisor := 5
	if len(os.Args) > 1 {
		parsed, err := strconv.Atoi(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad divisor:", err)
			os.Exit(64)
		}
		divisor = parsed
	}

	// BAD: Divides without rejecting zero
	fmt.Println("Quotient:", 100/divisor)
}
