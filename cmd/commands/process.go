package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/inboxd/inboxd/internal/events"
	"github.com/inboxd/inboxd/internal/mail"
	"github.com/inboxd/inboxd/internal/poller"
)

// NewProcessCommand returns the process subcommand: one poll cycle, no daemon.
func NewProcessCommand() *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "Run a single poll cycle and exit",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "Max messages to fetch",
			},
		},
		Action: runProcess,
	}
}

func runProcess(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	cfg := loadConfig(cmd)
	if cmd.IsSet("count") {
		cfg.Poller.BatchSize = cmd.Int("count")
	}

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	store, err := openTodoStore(cfg)
	if err != nil {
		return fmt.Errorf("open todo store: %w", err)
	}

	classifier, err := buildClassifier(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init classifier: %w", err)
	}

	p, err := poller.New(cfg.Poller, poller.Deps{
		Source:     mail.NewGmailSource(cfg.Gmail),
		Classifier: classifier,
		Todos:      store,
		Bus:        bus,
	})
	if err != nil {
		return fmt.Errorf("init poller: %w", err)
	}

	result, err := p.TriggerCycle(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Fetched %d messages (%d new), created %d todos\n",
		result.Fetched, result.New, result.TasksCreated)
	for _, ce := range result.Errors {
		fmt.Printf("  failed %s: %s\n", ce.MessageID, ce.Err)
	}
	return nil
}
