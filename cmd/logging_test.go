package cmd

import (
	"flag"
	"strings"
	"testing"

	"github.com/achilleasa/spheretrace/log"
	"github.com/urfave/cli"
)

func loggingContext(level string, modules ...string) *cli.Context {
	globalSet := flag.NewFlagSet("global", flag.ContinueOnError)
	globalSet.Bool("v", false, "")
	globalSet.Bool("vv", false, "")
	globalSet.String("log-level", level, "")
	moduleLevels := cli.StringSlice(modules)
	globalSet.Var(&moduleLevels, "log-module", "")

	globalCtx := cli.NewContext(nil, globalSet, nil)
	return cli.NewContext(nil, flag.NewFlagSet("cmd", flag.ContinueOnError), globalCtx)
}

func TestSetupLogging(t *testing.T) {
	defer func() {
		log.SetLevel(log.Notice)
		log.SetModuleLevel("bvh builder", log.Notice)
		log.SetModuleLevel("renderer", log.Notice)
	}()

	specs := []struct {
		level   string
		modules []string
		expErr  string
	}{
		{"", nil, ""},
		{"debug", []string{"bvh builder=warning", "renderer=error"}, ""},
		{"loud", nil, `log: unknown level "loud"`},
		{"", []string{"renderer"}, "expected module=level"},
		{"", []string{"=debug"}, "expected module=level"},
		{"", []string{"renderer=loud"}, `log: unknown level "loud"`},
	}

	for specIndex, spec := range specs {
		err := setupLogging(loggingContext(spec.level, spec.modules...))
		switch {
		case spec.expErr == "" && err != nil:
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		case spec.expErr != "" && (err == nil || !strings.Contains(err.Error(), spec.expErr)):
			t.Errorf("[spec %d] expected error containing %q; got %v", specIndex, spec.expErr, err)
		}
	}
}
