package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/agent-console/internal/accesskeys"
	"github.com/JaimeStill/agent-console/internal/apikeys"
	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/catalog"
	"github.com/JaimeStill/agent-console/internal/config"
	"github.com/JaimeStill/agent-console/internal/lifecycle"
	"github.com/JaimeStill/agent-console/internal/storage"
	"github.com/JaimeStill/agent-console/internal/store"
	"github.com/JaimeStill/agent-console/internal/uploads"
	"github.com/JaimeStill/agent-console/pkg/logging"
	"github.com/spf13/cobra"
)

// console holds the systems a single command invocation works with.
type console struct {
	cfg        *config.Config
	lifecycle  *lifecycle.Coordinator
	logger     *slog.Logger
	backend    *backend.Client
	store      *store.Store
	uploads    *uploads.Workflow
	accessKeys accesskeys.System
	apiKeys    apikeys.System
	catalog    catalog.System
	out        *printer
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.Logging.Level = logging.LevelDebug
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

func newConsole(cmd *cobra.Command) (*console, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	out, err := newPrinter(cmd.OutOrStdout(), outputFormat)
	if err != nil {
		return nil, err
	}

	logger := logging.NewWithWriter(&cfg.Logging, os.Stderr)
	client := backend.New(&cfg.Backend, logger)

	blobs, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	agentStore := store.New(client, logger)
	c := &console{
		cfg:        cfg,
		lifecycle:  lifecycle.New(),
		logger:     logger,
		backend:    client,
		store:      agentStore,
		accessKeys: accesskeys.New(client, blobs, logger),
		apiKeys:    apikeys.New(client, logger),
		catalog:    catalog.New(client, logger),
		out:        out,
	}
	c.uploads = uploads.New(agentStore, client, logger, &cfg.Uploads, c.reportUploadFailure)

	if err := blobs.Start(c.lifecycle); err != nil {
		return nil, err
	}
	if err := c.store.Start(c.lifecycle); err != nil {
		return nil, err
	}
	if err := c.uploads.Start(c.lifecycle); err != nil {
		return nil, err
	}

	c.lifecycle.WaitForStartup()
	return c, nil
}

func (c *console) close() {
	if err := c.lifecycle.Shutdown(c.cfg.ShutdownTimeoutDuration()); err != nil {
		c.logger.Warn("shutdown incomplete", "error", err)
	}
}

func (c *console) reportUploadFailure(err *uploads.Error) {
	fmt.Fprintf(os.Stderr, "%s: %s (%s)\n", err.Title, err.Message, err.FileName)
}

// run builds a console for the command, invokes fn, and shuts the console down.
func run(fn func(ctx context.Context, c *console, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := newConsole(cmd)
		if err != nil {
			return err
		}
		defer c.close()

		return fn(cmd.Context(), c, args)
	}
}
