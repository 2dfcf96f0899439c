package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/GoCodeAlone/beans"
	"github.com/GoCodeAlone/beans/config"
	"github.com/GoCodeAlone/beans/feeders"
	"github.com/GoCodeAlone/beans/logging"
)

// configFeeders picks feeders for the flags: the config file by extension,
// then the .env file, then the process environment.
func configFeeders(opts *rootOptions) ([]config.Feeder, error) {
	var list []config.Feeder

	if opts.configFile != "" {
		switch strings.ToLower(filepath.Ext(opts.configFile)) {
		case ".yaml", ".yml":
			list = append(list, feeders.NewYamlFeeder(opts.configFile))
		case ".toml":
			list = append(list, feeders.NewTomlFeeder(opts.configFile))
		case ".json":
			list = append(list, feeders.NewJSONFeeder(opts.configFile))
		default:
			return nil, fmt.Errorf("unsupported config file type: %s", opts.configFile)
		}
	}
	if opts.envFile != "" {
		list = append(list, feeders.NewDotEnvFeeder(opts.envFile))
	}
	list = append(list, feeders.NewEnvFeeder())
	return list, nil
}

// buildContainer loads configuration, creates the container and scans.
func buildContainer(ctx context.Context, opts *rootOptions) (*beans.Container, beans.ScanResult, error) {
	list, err := configFeeders(opts)
	if err != nil {
		return nil, beans.ScanResult{}, err
	}
	cfg, err := beans.LoadConfig(ctx, list...)
	if err != nil {
		return nil, beans.ScanResult{}, err
	}
	if len(opts.roots) > 0 {
		cfg.ScanRoots = opts.roots
	}
	if len(cfg.ScanRoots) == 0 {
		cfg.ScanRoots = []string{DefaultRoot}
	}

	zl := zap.NewNop()
	if opts.verbose {
		if zl, err = zap.NewDevelopment(); err != nil {
			return nil, beans.ScanResult{}, fmt.Errorf("create logger: %w", err)
		}
	}

	c, err := beans.NewContainer(
		beans.WithLogger(logging.NewZapLogger(zl)),
		beans.WithConfig(cfg),
	)
	if err != nil {
		return nil, beans.ScanResult{}, err
	}

	result, err := c.Scan(ctx)
	if err != nil {
		_ = c.Destroy()
		return nil, result, err
	}
	return c, result, nil
}
