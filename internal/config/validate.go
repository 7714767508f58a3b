package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if err := c.validateMount(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAPI() error {
	if err := validateHTTPURL(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if c.API.TimeoutSeconds < 0 {
		return errors.New("api.timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateAuth() error {
	if err := validateHTTPURL(c.Auth.LoginURL); err != nil {
		return fmt.Errorf("auth.login_url: %w", err)
	}
	if c.Auth.PollIntervalSeconds <= 0 {
		return errors.New("auth.poll_interval_seconds must be positive")
	}
	if c.Auth.LoginTimeoutSeconds < 0 {
		return errors.New("auth.login_timeout_seconds must be >= 0")
	}
	if c.Auth.TokenFile == c.Auth.StateFile {
		return errors.New("auth.token_file and auth.state_file must differ")
	}
	return nil
}

func (c *Config) validateMount() error {
	if c.Mount.CacheDir == "" {
		return errors.New("mount.cache_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("must be set")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
