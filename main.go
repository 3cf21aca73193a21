package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/go-cityscapes/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.RootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
