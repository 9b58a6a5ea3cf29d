package main

import "github.com/tranvictor/petshop/cmd"

func main() {
	cmd.Execute()
}
