package main

import (
	"github.com/sidkik/worldsync/cmd"
	"github.com/sidkik/worldsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
