package main

import (
	"context"
	"os"

	"github.com/dmorgan81/promptbot/internal/cli"
	"github.com/dmorgan81/promptbot/internal/inject"
	"github.com/dmorgan81/promptbot/internal/log"
)

func main() {
	ctx := log.NewContext(context.Background(), log.New(os.Stderr, log.ParseLevel(os.Getenv("LOG_LEVEL"))))
	injector := inject.Setup(ctx)
	if err := cli.NewCLI(ctx, injector).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
