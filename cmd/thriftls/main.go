// Package main provides the thriftls CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kpumuk/thriftfmt/internal/config"
	"github.com/kpumuk/thriftfmt/internal/logging"
	"github.com/kpumuk/thriftfmt/internal/lsp"
)

func main() {
	ctx := context.Background()
	srv, ctx, err := newServer(ctx, os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "thriftls:", err)
		os.Exit(2)
	}
	if err := srv.RunStdio(ctx); err != nil {
		logging.FromContext(ctx).Error("server stopped", logging.FieldError, err)
		os.Exit(1)
	}
}

// newServer parses flags, resolves the project options and returns the server
// together with a context carrying the stderr logger.
func newServer(ctx context.Context, args []string, stderr io.Writer) (*lsp.Server, context.Context, error) {
	fs := pflag.NewFlagSet("thriftls", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "formatter config file applied on top of the project file")
	workingDir := fs.String("root", "", "directory where project config discovery starts")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, ctx, err
	}

	logger := logging.NewWithWriter(stderr, *logLevel)
	ctx = logging.WithLogger(ctx, logger)

	res, err := config.Load(ctx, config.LoadOptions{WorkingDir: *workingDir, ExplicitPath: *configPath})
	if err != nil {
		return nil, ctx, err
	}
	for _, path := range res.LoadedFrom {
		logger.Debug("loaded config", logging.FieldPath, path)
	}
	return lsp.NewServer(lsp.WithFormatOptions(res.Options)), ctx, nil
}
