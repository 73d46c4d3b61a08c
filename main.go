package main

import "github.com/modularflow/mcp-ui-explorer/cmd"

func main() {
	cmd.Execute()
}
