package main

import (
	"fmt"
	"os"

	"codegateway/cmd/gateway"
)

func main() {
	if err := gateway.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
