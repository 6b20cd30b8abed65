package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/inboxd/inboxd/internal/config"
	"github.com/inboxd/inboxd/internal/heartbeat"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show inboxd daemon status",
		Action: func(_ context.Context, _ *cli.Command) error {
			state, hb, err := heartbeat.Check(config.HeartbeatPath(), 2*time.Minute)
			if err != nil {
				return fmt.Errorf("check heartbeat: %w", err)
			}

			switch state {
			case heartbeat.Alive:
				fmt.Printf("Daemon: ALIVE (PID %d, uptime %s, %s)\n", hb.PID, hb.Uptime, hb.Addr)
				if hb.Poll.Running {
					fmt.Printf("Poller: running, %d todos created", hb.Poll.TasksCreated)
					if hb.Poll.LastPollTime != nil {
						fmt.Printf(", last poll %s ago", time.Since(*hb.Poll.LastPollTime).Truncate(time.Second))
					}
					fmt.Println()
				} else {
					fmt.Println("Poller: stopped")
				}
			case heartbeat.Stale:
				fmt.Printf("Daemon: STALE (PID %d, last heartbeat %s ago)\n",
					hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
			case heartbeat.Dead:
				fmt.Println("Daemon: NOT RUNNING")
			}

			return nil
		},
	}
}
