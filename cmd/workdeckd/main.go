package main

import "github.com/workdeckhq/workdeck/cmd/workdeckd/cmd"

func main() {
	cmd.Execute()
}
