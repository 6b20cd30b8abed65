package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/inboxd/inboxd/internal/classify"
	"github.com/inboxd/inboxd/internal/config"
	"github.com/inboxd/inboxd/internal/events"
	"github.com/inboxd/inboxd/internal/gateway"
	"github.com/inboxd/inboxd/internal/heartbeat"
	"github.com/inboxd/inboxd/internal/integrations"
	"github.com/inboxd/inboxd/internal/mail"
	"github.com/inboxd/inboxd/internal/models"
	"github.com/inboxd/inboxd/internal/poller"
	"github.com/inboxd/inboxd/internal/storage"
	"github.com/inboxd/inboxd/internal/todo"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the inboxd daemon: gateway API plus background poller",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
			&cli.BoolFlag{
				Name:  "no-poll",
				Usage: "Do not start the background poller",
			},
		},
		Action: runServe,
	}
}

func runServe(_ context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := loadConfig(cmd)

	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	eventLog := storage.NewEventLogger(filepath.Join(config.InboxdPath(), "events"), bus)
	defer eventLog.Close()

	store, err := openTodoStore(cfg)
	if err != nil {
		return fmt.Errorf("open todo store: %w", err)
	}

	registry, err := integrations.NewRegistry(filepath.Join(config.InboxdPath(), "integrations.yaml"))
	if err != nil {
		return fmt.Errorf("load integrations: %w", err)
	}

	classifier, err := buildClassifier(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init classifier: %w", err)
	}

	source := mail.NewGmailSource(cfg.Gmail)

	p, err := poller.New(cfg.Poller, poller.Deps{
		Source:     source,
		Classifier: classifier,
		Todos:      store,
		Bus:        bus,
	})
	if err != nil {
		return fmt.Errorf("init poller: %w", err)
	}

	if cfg.Poller.AutostartEnabled() && !cmd.Bool("no-poll") {
		if err := p.Start(); err != nil {
			return fmt.Errorf("start poller: %w", err)
		}
		defer p.Stop()
	} else {
		slog.Info("poller autostart disabled")
	}

	server := gateway.NewServer(cfg.Gateway.Host, cfg.Gateway.Port, gateway.Deps{
		Bus:        bus,
		Todos:      store,
		Registry:   registry,
		Poller:     p,
		Classifier: classifier,
	})

	hb := heartbeat.NewWriter(config.HeartbeatPath(), server.Addr(), func() heartbeat.PollSnapshot {
		status := p.Status()
		return heartbeat.PollSnapshot{
			Running:      status.IsRunning,
			LastPollTime: status.LastPollTime,
			TasksCreated: status.TotalTasksCreated,
		}
	})
	hb.Start()
	defer hb.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// loadConfig reads the config file from the --config flag, falling back to
// defaults when the file is missing.
func loadConfig(cmd *cli.Command) *config.Config {
	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("config not found, using defaults", "path", configPath, "error", err)
		cfg = config.Default()
	}
	return cfg
}

func openTodoStore(cfg *config.Config) (todo.Store, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		if cfg.Storage.Path != "" {
			return todo.NewSQLiteStore(cfg.Storage.Path)
		}
	case "", "file":
		if cfg.Storage.Dir != "" {
			return todo.NewFileStore(cfg.Storage.Dir), nil
		}
	}
	return todo.NewStore(cfg.Storage.Driver, config.InboxdPath())
}

func buildClassifier(ctx context.Context, cfg *config.Config) (classify.Classifier, error) {
	registry := models.NewRegistry(cfg.Models)
	chatModel, err := registry.Default(ctx)
	if err != nil {
		return nil, err
	}
	return classify.NewLLMClassifier(chatModel, cfg.Poller.ClassifyTimeout.Duration()), nil
}
