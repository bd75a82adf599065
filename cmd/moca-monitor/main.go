package main

import (
	"github.com/brocaar/moca-monitor/cmd/moca-monitor/cmd"
)

var version string // set by the compiler

func main() {
	cmd.Execute(version)
}
