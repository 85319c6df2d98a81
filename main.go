package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/hbomb79/camcheck/internal"
	"github.com/hbomb79/camcheck/pkg/logger"
)

var log = logger.Get("Bootstrap")

// main is the entry point to the program. The configuration is loaded from
// the (optional) file provided, merged with the environment, before the
// selected capture devices are tested.
func main() {
	configPath := flag.String("config", "", "path to an optional YAML configuration file")
	flag.Parse()

	config, err := internal.Load(*configPath)
	if err != nil {
		log.Emit(logger.FATAL, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if level, ok := logger.ParseStatus(config.LogLevel); ok {
		logger.SetMinLoggingLevel(level.Level())
	} else {
		log.Emit(logger.WARNING, "Unknown log level %q, defaulting to INFO\n", config.LogLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exitChannel := make(chan os.Signal, 1)
	signal.Notify(exitChannel, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-exitChannel
		log.Emit(logger.WARNING, "Interrupt detected! Abandoning remaining work...\n")
		cancel()
	}()

	if err := internal.New(*config).Run(ctx, os.Stdin, os.Stdout); err != nil {
		var selectionErr *internal.SelectionError
		if errors.As(err, &selectionErr) {
			os.Exit(selectionErr.ExitCode)
		}

		log.Emit(logger.FATAL, "%v\n", err)
		os.Exit(1)
	}
}
