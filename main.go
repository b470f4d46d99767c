package main

import "github.com/jverhoeven/radioscrobble/cmd"

func main() {
	cmd.Execute()
}
