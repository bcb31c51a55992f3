package toml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/moonbix-cli/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	configName         = "config"
	configType         = "toml"
	configFile         = "config.toml"
	configFileMode     = 0o600
	configTempPattern  = ".config-*.toml.tmp"
	defaultHomeDirName = ".moonbix"

	keyAutoTask         = "auto_task"
	keyAutoGame         = "auto_game"
	keyMinPoints        = "min_points"
	keyMaxPoints        = "max_points"
	keyIntervalMinutes  = "interval_minutes"
	keyReloginEachCycle = "relogin_each_cycle"
	keyTaskResetCron    = "task_reset_cron"
	keyRestartEnabled   = "restart.enabled"
	keyRestartInitial   = "restart.initial_backoff"
	keyRestartMax       = "restart.max_backoff"
)

type settingsSchema struct {
	AutoTask         bool          `toml:"auto_task"`
	AutoGame         bool          `toml:"auto_game"`
	MinPoints        int           `toml:"min_points"`
	MaxPoints        int           `toml:"max_points"`
	IntervalMinutes  int           `toml:"interval_minutes"`
	ReloginEachCycle bool          `toml:"relogin_each_cycle"`
	TaskResetCron    string        `toml:"task_reset_cron"`
	Restart          restartSchema `toml:"restart"`
}

type restartSchema struct {
	Enabled        bool   `toml:"enabled"`
	InitialBackoff string `toml:"initial_backoff"`
	MaxBackoff     string `toml:"max_backoff"`
}

// LoadSettings reads config.toml under home. A missing file is created with
// the default settings first.
func LoadSettings(cfg *viper.Viper, home string) (domain.Settings, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	home, err := ResolveHome(home)
	if err != nil {
		return domain.Settings{}, err
	}

	if err := ensureSettingsFile(home); err != nil {
		return domain.Settings{}, err
	}
	if err := readConfig(cfg, home); err != nil {
		return domain.Settings{}, err
	}

	settings := domain.Settings{
		AutoTask:         cfg.GetBool(keyAutoTask),
		AutoGame:         cfg.GetBool(keyAutoGame),
		MinPoints:        cfg.GetInt(keyMinPoints),
		MaxPoints:        cfg.GetInt(keyMaxPoints),
		IntervalMinutes:  cfg.GetInt(keyIntervalMinutes),
		ReloginEachCycle: cfg.GetBool(keyReloginEachCycle),
		TaskResetCron:    cfg.GetString(keyTaskResetCron),
		Restart: domain.RestartPolicy{
			Enabled:        cfg.GetBool(keyRestartEnabled),
			InitialBackoff: cfg.GetDuration(keyRestartInitial),
			MaxBackoff:     cfg.GetDuration(keyRestartMax),
		},
	}

	if err := settings.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("invalid %s: %w", configFile, err)
	}
	if settings.TaskResetCron != "" {
		if _, err := cron.ParseStandard(settings.TaskResetCron); err != nil {
			return domain.Settings{}, fmt.Errorf("invalid %s: task_reset_cron %q: %w", configFile, settings.TaskResetCron, err)
		}
	}

	return settings, nil
}

func readConfig(cfg *viper.Viper, home string) error {
	home, err := ResolveHome(home)
	if err != nil {
		return err
	}

	defaults := domain.DefaultSettings()
	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(home)
	cfg.SetDefault(accountsPathKey, filepath.Join(home, accountsConfigFile))
	cfg.SetDefault(keyAutoTask, defaults.AutoTask)
	cfg.SetDefault(keyAutoGame, defaults.AutoGame)
	cfg.SetDefault(keyMinPoints, defaults.MinPoints)
	cfg.SetDefault(keyMaxPoints, defaults.MaxPoints)
	cfg.SetDefault(keyIntervalMinutes, defaults.IntervalMinutes)
	cfg.SetDefault(keyReloginEachCycle, defaults.ReloginEachCycle)
	cfg.SetDefault(keyTaskResetCron, defaults.TaskResetCron)
	cfg.SetDefault(keyRestartEnabled, defaults.Restart.Enabled)
	cfg.SetDefault(keyRestartInitial, defaults.Restart.InitialBackoff.String())
	cfg.SetDefault(keyRestartMax, defaults.Restart.MaxBackoff.String())

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	return nil
}

func ensureSettingsFile(home string) error {
	path := filepath.Join(home, configFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(home, accountsDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	defaults := domain.DefaultSettings()
	data, err := toml.Marshal(settingsSchema{
		AutoTask:         defaults.AutoTask,
		AutoGame:         defaults.AutoGame,
		MinPoints:        defaults.MinPoints,
		MaxPoints:        defaults.MaxPoints,
		IntervalMinutes:  defaults.IntervalMinutes,
		ReloginEachCycle: defaults.ReloginEachCycle,
		TaskResetCron:    defaults.TaskResetCron,
		Restart: restartSchema{
			Enabled:        defaults.Restart.Enabled,
			InitialBackoff: defaults.Restart.InitialBackoff.String(),
			MaxBackoff:     defaults.Restart.MaxBackoff.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}

	return writeFileAtomic(path, configTempPattern, data, configFileMode)
}

func ResolveHome(home string) (string, error) {
	if home != "" {
		return filepath.Clean(home), nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(userHome, defaultHomeDirName), nil
}
