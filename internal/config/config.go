package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"taskpad/internal/task"
)

const (
	DefaultConfigFileName = "config.toml"

	BackendSQLite = "sqlite"
	BackendFile   = "file"

	defaultDBName       = "tasks.db"
	defaultTasksName    = "todo.db"
	defaultNotifsName   = "notifications.db"
	defaultPollInterval = time.Second
)

type Keymap struct {
	Quit       string `toml:"quit"`
	Add        string `toml:"add"`
	Complete   string `toml:"complete"`
	Delete     string `toml:"delete"`
	Edit       string `toml:"edit"`
	Category   string `toml:"category"`
	Reminder   string `toml:"reminder"`
	Overdue    string `toml:"overdue"`
	Filter     string `toml:"filter"`
	SwitchView string `toml:"switch_view"`
	Goto       string `toml:"goto"`
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	Confirm    string `toml:"confirm"`
	Cancel     string `toml:"cancel"`
}

type Config struct {
	Storage           string   `toml:"storage"`
	DBPath            string   `toml:"db_path"`
	TasksPath         string   `toml:"tasks_path"`
	NotificationsPath string   `toml:"notifications_path"`
	DefaultFilter     string   `toml:"default_filter"`
	PollInterval      string   `toml:"poll_interval"`
	OverdueEvery      string   `toml:"overdue_every"`
	NotifyCommand     []string `toml:"notify_command"`
	Keys              Keymap   `toml:"keys"`
}

// PollIntervalDuration returns the daemon scan period, falling back to
// one second when the field is empty or unparsable.
func (c Config) PollIntervalDuration() time.Duration {
	d, err := task.ParseSpan(c.PollInterval)
	if err != nil || d <= 0 {
		return defaultPollInterval
	}
	return d
}

// OverdueDuration returns the overdue re-notify frequency; zero means
// re-notification is off.
func (c Config) OverdueDuration() time.Duration {
	d, err := task.ParseSpan(c.OverdueEvery)
	if err != nil {
		return 0
	}
	return d
}

// ResolveConfigPath returns the per-user config location, or a file in
// the working directory when the user config dir is unavailable.
func ResolveConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(base, "taskpad", DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults first if
// the file does not exist yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return fillDefaults(cfg, filepath.Dir(path)), nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func Default(dataDir string) Config {
	return Config{
		Storage:           BackendSQLite,
		DBPath:            filepath.Join(dataDir, defaultDBName),
		TasksPath:         filepath.Join(dataDir, defaultTasksName),
		NotificationsPath: filepath.Join(dataDir, defaultNotifsName),
		DefaultFilter:     task.CategoryAll,
		PollInterval:      "1s",
		OverdueEvery:      "0",
		NotifyCommand:     []string{"notify-send", "TODO", "{message}"},
		Keys: Keymap{
			Quit:       "q",
			Add:        "n",
			Complete:   "c",
			Delete:     "d",
			Edit:       "e",
			Category:   "s",
			Reminder:   "r",
			Overdue:    "O",
			Filter:     "#",
			SwitchView: "tab",
			Goto:       ":",
			Up:         "k",
			Down:       "j",
			Confirm:    "enter",
			Cancel:     "esc",
		},
	}
}

func fillDefaults(cfg Config, dataDir string) Config {
	def := Default(dataDir)
	if cfg.Storage == "" {
		cfg.Storage = def.Storage
	}
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.TasksPath == "" {
		cfg.TasksPath = def.TasksPath
	}
	if cfg.NotificationsPath == "" {
		cfg.NotificationsPath = def.NotificationsPath
	}
	if cfg.DefaultFilter == "" {
		cfg.DefaultFilter = def.DefaultFilter
	}
	if len(cfg.NotifyCommand) == 0 {
		cfg.NotifyCommand = def.NotifyCommand
	}
	if cfg.Keys.Quit == "" {
		cfg.Keys = def.Keys
	}
	return cfg
}
