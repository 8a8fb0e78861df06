package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("preparing")

	// BAD: Bails out with a hard exit instead of returning an error
	fmt.Fprintln(os.Stderr, "fatal: cannot continue")
	os.Exit(3)

	// BAD: Unreachable code after the exit
	fmt.Println("This will never execute")
}
