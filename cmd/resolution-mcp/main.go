package main

import (
	"github.com/oncp/resolution-mcp/cmd/resolution-mcp/cmd"
)

func main() {
	cmd.Execute()
}
