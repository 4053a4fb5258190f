package main

import (
	"github.com/sidkik/docsync/cmd"
	"github.com/sidkik/docsync/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
