package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/synheart/consciousness-bridge/internal/config"
	"go.uber.org/zap"
)

// GlobalOptions are shared flags that apply across commands.
type GlobalOptions struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	Quiet      bool
}

var globalOpts = GlobalOptions{
	EnvFile: ".env",
}

// loadConfig resolves configuration from the config file, .env, environment
// and finally the command's changed flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(globalOpts.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(globalOpts.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = globalOpts.LogLevel
	}
	if f := flags.Lookup("host"); f != nil && f.Changed {
		cfg.Server.Host = f.Value.String()
	}
	if flags.Changed("port") {
		if cfg.Server.Port, err = flags.GetInt("port"); err != nil {
			return nil, err
		}
	}
	if f := flags.Lookup("tier"); f != nil && f.Changed {
		cfg.Generator.Tier = f.Value.String()
	}
	if f := flags.Lookup("schedule"); f != nil && f.Changed {
		cfg.Generator.Schedule = f.Value.String()
	}
	if f := flags.Lookup("schedules-dir"); f != nil && f.Changed {
		cfg.Generator.SchedulesDir = f.Value.String()
	}
	if flags.Changed("stream") {
		if cfg.Stream.Enabled, err = flags.GetBool("stream"); err != nil {
			return nil, err
		}
	}
	if f := flags.Lookup("stream-rate"); f != nil && f.Changed {
		cfg.Stream.Rate = f.Value.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
