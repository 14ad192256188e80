// Package main boots the pantrymatch search core: catalog store, cache,
// invalidation coordinator and the operator endpoints
package main

import (
	"flag"
	"os"

	"github.com/pantrymatch/pantrymatch/internal/infrastructure/container"
	"go.uber.org/fx"
)

func main() {
	configPath := flag.String("config", os.Getenv("PANTRYMATCH_CONFIG"), "path to the configuration file")
	verbose := flag.Bool("fx-verbose", false, "log dependency graph construction")
	flag.Parse()

	opts := []fx.Option{
		fx.Supply(container.ConfigPath(*configPath)),
		container.Module,
	}
	if !*verbose {
		opts = append(opts, fx.NopLogger)
	}

	fx.New(opts...).Run()
}
