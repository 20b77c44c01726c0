package main

import (
	"github.com/robotalks/thermlink/pkg/cli/sh"

	_ "github.com/robotalks/thermlink/pkg/cli/cmds/link"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
