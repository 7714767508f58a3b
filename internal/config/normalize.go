package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAPI()
	if err := c.normalizeAuth(); err != nil {
		return err
	}
	if err := c.normalizeMount(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeAPI() {
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv(envToken); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
}

func (c *Config) normalizeAuth() error {
	c.Auth.LoginURL = strings.TrimSpace(c.Auth.LoginURL)
	if c.Auth.LoginURL == "" {
		c.Auth.LoginURL = defaultLoginURL
	}
	c.Auth.BrowserCommand = strings.TrimSpace(c.Auth.BrowserCommand)
	if strings.TrimSpace(c.Auth.TokenFile) == "" {
		c.Auth.TokenFile = defaultTokenFile
	}
	if strings.TrimSpace(c.Auth.StateFile) == "" {
		c.Auth.StateFile = defaultStateFile
	}
	var err error
	if c.Auth.TokenFile, err = expandPath(c.Auth.TokenFile); err != nil {
		return fmt.Errorf("auth.token_file: %w", err)
	}
	if c.Auth.StateFile, err = expandPath(c.Auth.StateFile); err != nil {
		return fmt.Errorf("auth.state_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeMount() error {
	if strings.TrimSpace(c.Mount.CacheDir) == "" {
		c.Mount.CacheDir = defaultCacheDir()
	}
	var err error
	if c.Mount.CacheDir, err = expandPath(c.Mount.CacheDir); err != nil {
		return fmt.Errorf("mount.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
