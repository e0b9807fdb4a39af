package main

import "github.com/agentic-research/assetcache/cmd"

func main() {
	cmd.Execute()
}
