package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/synheart/consciousness-bridge/internal/config"
	"github.com/synheart/consciousness-bridge/internal/generator"
	"github.com/synheart/consciousness-bridge/internal/models"
	"github.com/synheart/consciousness-bridge/internal/schedule"
)

func getScheduleDir() string {
	// Try current directory first
	if _, err := os.Stat("schedules"); err == nil {
		return "schedules"
	}

	// Try relative to executable
	exe, err := os.Executable()
	if err == nil {
		dir := filepath.Join(filepath.Dir(exe), "schedules")
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}

	return ""
}

// loadRegistry returns the builtin schedules plus any found in dir, which
// defaults to a local schedules/ directory
func loadRegistry(dir string) (*schedule.Registry, error) {
	registry, err := schedule.NewBuiltinRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load builtin schedules: %w", err)
	}

	if dir == "" {
		dir = getScheduleDir()
	}
	if dir != "" {
		if err := registry.LoadFromDir(dir); err != nil {
			return nil, fmt.Errorf("failed to load schedules from %s: %w", dir, err)
		}
	}
	return registry, nil
}

// newGenerator builds the generator described by cfg
func newGenerator(cfg *config.Config) (*generator.Generator, error) {
	registry, err := loadRegistry(cfg.Generator.SchedulesDir)
	if err != nil {
		return nil, err
	}

	sched, err := registry.Get(cfg.ScheduleName())
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule '%s': %w", cfg.ScheduleName(), err)
	}

	tier, err := models.ParseTier(cfg.Generator.Tier)
	if err != nil {
		return nil, err
	}

	return generator.NewGenerator(generator.Config{Tier: tier, Schedule: sched})
}
