// ABOUTME: Entry point for the chatsync terminal chat client
// ABOUTME: Hands off to the cobra command tree in root.go
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
