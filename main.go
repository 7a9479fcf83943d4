package main

import "github.com/nextlevelbuilder/goalkeeper/cmd"

func main() {
	cmd.Execute()
}
