package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"nexttodo/internal/alarm"
	"nexttodo/internal/config"
	"nexttodo/internal/logging"
	"nexttodo/internal/storage"
	"nexttodo/internal/task"
)

var (
	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:           "todo",
		Short:         "A to-do list with due-date alarms",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runTUI,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $NEXTTODO_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log_level from the config file")
	rootCmd.AddCommand(addCmd, listCmd, doneCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app holds what every command needs once the config is loaded.
type app struct {
	cfg     config.Config
	logger  *log.Logger
	kv      storage.KV
	store   *task.Store
	closers []io.Closer
}

// openApp loads config, opens storage and initializes the task store. When
// logToFile is set the logger writes to cfg.LogPath, else to stderr.
func openApp(ctx context.Context, logToFile bool) (*app, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	path := configPath
	if path == "" {
		path = config.ResolveConfigPath(env)
	}
	firstLaunch := false
	if _, err := os.Stat(path); err != nil {
		firstLaunch = errors.Is(err, os.ErrNotExist)
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg = env.Apply(cfg)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	a := &app{cfg: cfg}
	if logToFile {
		l, c, err := logging.OpenFile(cfg.LogPath, cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		a.logger = l
		a.closers = append(a.closers, c)
	} else {
		a.logger = logging.New(os.Stderr, cfg.LogLevel)
	}
	if firstLaunch {
		a.logger.Info("wrote default config", "path", path)
	}

	switch cfg.Store {
	case config.StoreFile:
		a.kv, err = storage.OpenFile(cfg.DataDir)
	default:
		a.kv, err = storage.OpenSQLite(cfg.DBPath)
	}
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Store, err)
	}
	a.closers = append(a.closers, a.kv)

	a.store = task.NewStore(a.kv, cfg.StorageKey, task.WithLogger(a.logger))
	if err := a.store.Initialize(ctx); err != nil {
		// The store fell back to an empty list; keep going.
		a.logger.Warn("starting with an empty list", "err", err)
	}
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "err", err)
		}
	}
}

func (a *app) newEngine() *alarm.Engine {
	resync, _ := a.cfg.ResyncInterval()
	return alarm.New(a.store,
		alarm.WithNotifier(a.notifier()),
		alarm.WithLogger(a.logger),
		alarm.WithResync(resync),
	)
}

func (a *app) notifier() alarm.Notifier {
	n := a.cfg.Notify
	var backends []alarm.Notifier
	if len(n.Command) > 0 {
		backends = append(backends, alarm.CommandNotifier{Args: n.Command})
	}
	if n.WebPush.Endpoint != "" {
		backends = append(backends, alarm.WebPushNotifier{
			Subscription: alarm.WebPushSubscription{
				Endpoint: n.WebPush.Endpoint,
				P256dh:   n.WebPush.P256dh,
				Auth:     n.WebPush.Auth,
			},
			VAPIDPublicKey:  n.WebPush.VAPIDPublicKey,
			VAPIDPrivateKey: n.WebPush.VAPIDPrivateKey,
			Contact:         n.WebPush.Contact,
		})
	}
	perm := alarm.ParsePermission(n.Permission)
	if perm != alarm.PermissionGranted {
		a.logger.Debug("system notifications off, banner only", "permission", perm)
	}
	return alarm.NewSystemNotifier(perm, backends...)
}
