package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/inboxd/inboxd/internal/todo"
)

// NewTodosCommand returns the todos subcommand for quick inspection from the
// terminal without a running daemon.
func NewTodosCommand() *cli.Command {
	return &cli.Command{
		Name:  "todos",
		Usage: "List todos",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include completed todos",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Filter by source channel",
			},
		},
		Action: runTodos,
	}
}

func runTodos(_ context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	store, err := openTodoStore(cfg)
	if err != nil {
		return fmt.Errorf("open todo store: %w", err)
	}

	filter := todo.ListFilter{Source: cmd.String("source")}
	if !cmd.Bool("all") {
		open := false
		filter.Completed = &open
	}

	todos, err := store.List(filter)
	if err != nil {
		return err
	}
	if len(todos) == 0 {
		fmt.Println("No todos.")
		return nil
	}

	for _, t := range todos {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		line := fmt.Sprintf("[%s] %-8s %s  %s", mark, t.Priority, t.ID, t.Title)
		if t.DueDate != "" {
			line += " (due " + t.DueDate + ")"
		}
		fmt.Println(line)
	}
	return nil
}
