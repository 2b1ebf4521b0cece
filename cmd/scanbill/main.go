package main

import "github.com/scanbill/scanbill/cmd/scanbill/cmd"

func main() {
	cmd.Execute()
}
