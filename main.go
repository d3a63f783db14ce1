package main

import "github.com/nextlevelbuilder/pagewheel/cmd"

func main() {
	cmd.Execute()
}
