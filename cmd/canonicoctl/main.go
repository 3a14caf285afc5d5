// Command canonicoctl manages canonical configuration records from a terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pitabwire/canonico/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
