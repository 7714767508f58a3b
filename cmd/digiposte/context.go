package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nivram913/fuse-digiposte/internal/auth"
	"github.com/nivram913/fuse-digiposte/internal/config"
	"github.com/nivram913/fuse-digiposte/internal/logging"
	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
)

type commandContext struct {
	configFlag *string
	tokenFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, tokenFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		tokenFlag:  tokenFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// log returns the process logger. It writes to stderr so command output and
// pipe replies on stdout stay clean.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue())
		if err != nil {
			fmt.Fprintf(os.Stderr, "warn: falling back to default logger: %v\n", err)
			logger, _ = logging.New(logging.Options{Level: "info", Format: "console"})
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) tokenFlagValue() string {
	if c.tokenFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.tokenFlag)
}

// token resolves the bearer token from the flag, config, stored login or an
// interactive login, in that order.
func (c *commandContext) token(ctx context.Context) (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	token, err := auth.Resolve(ctx, auth.SourcesFromConfig(cfg, c.tokenFlagValue(), c.log()))
	if errors.Is(err, auth.ErrNoToken) {
		return "", fmt.Errorf("%w; run `digiposte login`, pass --token or set DIGIPOSTE_TOKEN", err)
	}
	return token, err
}

func (c *commandContext) client(ctx context.Context) (*digiposte.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	return c.newClient(cfg, token)
}

func (c *commandContext) newClient(cfg *config.Config, token string) (*digiposte.Client, error) {
	return digiposte.New(token,
		digiposte.WithBaseURL(cfg.API.BaseURL),
		digiposte.WithTimeout(cfg.RequestTimeout()),
		digiposte.WithLogger(c.log()),
	)
}

func (c *commandContext) withClient(cmd *cobra.Command, fn func(*digiposte.Client) error) error {
	client, err := c.client(cmd.Context())
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
