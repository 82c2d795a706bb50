package main

import "github.com/echovine/speechscore/cmd"

func main() {
	cmd.Execute()
}
