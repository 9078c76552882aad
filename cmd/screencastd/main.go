package main

import (
	"context"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/zap"

	"github.com/tiroq/screencastd/internal/cli"
)

func main() {
	l := zap.Default().WithLevel(cli.LoggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// cobra already printed the error; just exit non-zero.
		belt.Flush(ctx)
		os.Exit(1)
	}
}
