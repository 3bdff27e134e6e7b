package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/coder/serpent"

	"github.com/classhub/classhub/cmd/classhub/cli"
	"github.com/classhub/classhub/internal/app"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	cmd := &serpent.Command{
		Use:   "classhub",
		Short: "ClassHub API server and operational tools",
		Children: []*serpent.Command{
			serverCommand(),
			cli.CatalogCommand(),
			cli.CheckCommand(),
			cli.JobsCommand(),
		},
	}

	if err := cmd.Invoke().WithOS().Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
