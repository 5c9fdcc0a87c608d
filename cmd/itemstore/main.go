// Package main provides the itemstore CLI.
package main

import "github.com/mesh-intelligence/itemstore/internal/cli"

func main() {
	cli.Execute()
}
