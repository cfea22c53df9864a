// Package main is the entry point for the castor application.
package main

import (
	"github.com/castor-cli/castor/cmd"
	"github.com/castor-cli/castor/config"
	"github.com/castor-cli/castor/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
