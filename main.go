// Package main is the entry point of the curator command.
package main

import cmd "github.com/toozej/curator/cmd/curator"

func main() {
	cmd.Execute()
}
