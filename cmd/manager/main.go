package main

import (
	"fmt"
	"os"
)

// cmd/manager/main.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
