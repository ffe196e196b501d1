// Package main implements the taskpad CLI: the interactive task list
// by default, plus the reminder daemon and legacy file import.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskpad/internal/config"
	"taskpad/internal/daemon"
	"taskpad/internal/notify"
	"taskpad/internal/storage"
	"taskpad/internal/ui"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "taskpad",
	Short:        "A terminal task tracker with reminders",
	SilenceUsage: true,
	RunE:         runTUI,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Poll for due reminders and fire desktop notifications",
	RunE:  runDaemon,
}

var importCmd = &cobra.Command{
	Use:   "import <tasks-file> [notifications-file]",
	Short: "Import tasks from legacy delimited files into the configured store",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runImport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	rootCmd.AddCommand(daemonCmd, importCmd)
}

func loadConfig() (config.Config, string, error) {
	path := configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return cfg, path, fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

func openStore(cfg config.Config) (storage.Store, error) {
	store, err := storage.Open(cfg.Storage, cfg.DBPath, cfg.TasksPath, cfg.NotificationsPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return ui.Run(store, cfg, path)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	notifier, err := notify.NewCommand(cfg.NotifyCommand)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "taskpad: ", log.LstdFlags)
	p := daemon.New(store, notifier, cfg.PollIntervalDuration(), cfg.OverdueDuration(), logger)
	return p.Run(ctx)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	tasksFile := args[0]
	notifsFile := cfg.NotificationsPath
	if len(args) == 2 {
		notifsFile = args[1]
	}
	legacy, err := storage.OpenFlatFile(tasksFile, notifsFile)
	if err != nil {
		return err
	}
	tasks, err := legacy.Tasks()
	if err != nil {
		return fmt.Errorf("read %s: %w", tasksFile, err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, t := range tasks {
		if err := store.ImportTask(t); err != nil {
			return fmt.Errorf("import %q: %w", t.Text, err)
		}
	}
	fmt.Printf("imported %d tasks\n", len(tasks))
	return nil
}
