package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spoolgate/backend/internal/infrastructure/config"
	"github.com/spoolgate/backend/internal/infrastructure/spooler"
	"github.com/spoolgate/backend/internal/infrastructure/storage"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	newAdapter func(cfg *config.Config) spooler.Adapter
}

// adapterFactory builds the spooler adapter for every command
var adapterFactory = newCUPSAdapter

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		newAdapter: adapterFactory,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.LoadFile(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) wantJSON() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) adapter() (spooler.Adapter, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return c.newAdapter(cfg), nil
}

func (c *commandContext) storage() (*storage.FileSystemStorage, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return storage.NewFileSystemStorage(&storage.FileSystemStorageConfig{
		Root:        cfg.Storage.Root,
		MaxFileSize: cfg.Storage.MaxFileSize,
		Logger:      zap.NewNop(),
	})
}

func newCUPSAdapter(cfg *config.Config) spooler.Adapter {
	return spooler.NewCUPSAdapter(&spooler.CUPSConfig{
		LpPath:        cfg.Spooler.LpPath,
		LpstatPath:    cfg.Spooler.LpstatPath,
		LpinfoPath:    cfg.Spooler.LpinfoPath,
		LpoptionsPath: cfg.Spooler.LpoptionsPath,
		Timeout:       cfg.Spooler.CommandTimeout,
		Server:        cfg.Spooler.Server,
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
