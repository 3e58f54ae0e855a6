package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"jadwalku/internal/config"
	"jadwalku/internal/ics"
	"jadwalku/internal/kalender"
	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
	"jadwalku/internal/web"
)

var version = "0.1.0-dev"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	debug      bool
}

func main() {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "jadwalku",
		Short:         "Kalender akademik dan asisten jadwal kuliah",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "/etc/jadwalku/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		newServeCmd(&flags),
		newUpcomingCmd(&flags),
		newDashboardCmd(&flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the log level.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return nil, err
	}
	level := appLog.ParseLevel(cfg.LogLevel)
	if flags.debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)
	return cfg, nil
}

// loadCalendar picks the embedded dataset, a YAML file, or an ICS file.
func loadCalendar(cfg *config.Config, loc *time.Location) ([]model.Category, error) {
	if strings.EqualFold(filepath.Ext(cfg.CalendarFile), ".ics") {
		body, err := os.ReadFile(cfg.CalendarFile)
		if err != nil {
			return nil, err
		}
		return ics.ParseAcademic(body, loc)
	}
	return kalender.Load(cfg.CalendarFile)
}

// environment bundles what every subcommand needs.
type environment struct {
	cfg      *config.Config
	loc      *time.Location
	calendar []model.Category
}

func setup(flags *rootFlags) (*environment, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	loc := web.ResolveLocation(cfg.Timezone)
	cats, err := loadCalendar(cfg, loc)
	if err != nil {
		appLog.Error("failed to load academic calendar", err, "file", cfg.CalendarFile)
		return nil, err
	}
	return &environment{cfg: cfg, loc: loc, calendar: cats}, nil
}
