package main

import "github.com/awtempo/awtempo/cmd"

func main() {
	cmd.Execute()
}
