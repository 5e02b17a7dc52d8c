// Package main is the osintrat CLI entry point.
package main

import (
	"os"

	"github.com/hyperjump/osintrat/cmd/osintrat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
