// Package main provides the colldb CLI application.
// colldb manages the lifecycle of the NYC traffic-safety PostgreSQL
// warehouse.
package main

import (
	"os"
)

var (
	// Version is set by build flags
	Version = "dev"
)

func main() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
