// Command ghostwipe is the GHOSTWIPE launcher: it resolves how the personal
// data store is opened (first-time setup, encryption, or unlock) and hands it
// to the console.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/ghostwipe/ghostwipe/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Credentials live in memguard enclaves; wipe them however we exit.
	defer memguard.Purge()

	// SIGTERM ends the run. SIGINT cancels the prompt in progress, which the
	// launcher treats as a skipped field or a quit depending on the prompt.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	return cli.Execute(ctx, &cli.Env{Interrupts: interrupts}, os.Args[1:])
}
