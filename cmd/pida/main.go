// pida is a staged, rule-based decision agent. Every decision is appended
// to a hash-chained run log that feeds back into later decisions.
package main

import "github.com/ppiankov/pida/internal/cli"

func main() {
	cli.Execute()
}
