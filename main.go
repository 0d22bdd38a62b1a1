package main

import (
	cmd "github.com/creaza/ai-service/cmd/creaza"
)

func main() {
	cmd.Execute()
}
