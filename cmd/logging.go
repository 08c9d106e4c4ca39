package cmd

import (
	"fmt"
	"strings"

	"github.com/achilleasa/spheretrace/log"
	"github.com/urfave/cli"
)

var logger = log.New("spheretrace")

// Apply the global verbosity flags. --log-level overrides -v/-vv and
// --log-module entries ("module=level") override both for a single module.
func setupLogging(ctx *cli.Context) error {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	if name := ctx.GlobalString("log-level"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	for _, entry := range ctx.GlobalStringSlice("log-module") {
		module, name, found := strings.Cut(entry, "=")
		if !found || module == "" {
			return fmt.Errorf("invalid log-module value %q; expected module=level", entry)
		}
		level, err := log.ParseLevel(name)
		if err != nil {
			return err
		}
		log.SetModuleLevel(module, level)
	}
	return nil
}
