package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/scenery/internal/injector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scenery: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	path := flag.String("config", "configs/scenery.yaml", "path to a .yaml, .toml or .json config file")
	flag.Parse()

	rt, cleanup, err := injector.InitializeRuntime(*path)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}
