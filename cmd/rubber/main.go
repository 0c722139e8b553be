package main

import "github.com/goplus/rubber/cmd/rubber/internal"

func main() {
	internal.Execute()
}
