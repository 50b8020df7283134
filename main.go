package main

import "github.com/rightscope/rightscope/cmd"

func main() {
	cmd.Execute()
}
