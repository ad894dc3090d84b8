package main

import "palm-rag/client/palm-cli/cmd"

func main() {
	cmd.Execute()
}
