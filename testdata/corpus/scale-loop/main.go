package main

import "fmt"

func main() {
	values := []int32{7, 11, 42}
	for _, v := range values {
		fmt.Println("Result:", v*1000000)
	}
}
