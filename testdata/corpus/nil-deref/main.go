package main

import (
	"fmt"
	"os"
)

type record struct {
	label string
}

func find(key string) *record {
	known := map[string]*record{"alpha": {label: "first"}}
	return known[key]
}

func main() {
	key := "alpha"
	if len(os.Args) > 1 {
		key = os.Args[1]
	}

	// BAD: Lookup result used without a nil check
	rec := find(key)
	fmt.Println("Label:", rec.label)
}
