// Package notify delivers desktop notifications by shelling out to a
// command such as notify-send.
package notify

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Notifier sends a single user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Command runs a configurable argv for each notification, substituting
// "{message}" with the notification text. An argv without the
// placeholder gets the message appended as a final argument.
type Command struct {
	argv []string
}

var _ Notifier = (*Command)(nil)

func NewCommand(argv []string) (*Command, error) {
	if len(argv) == 0 {
		return nil, errors.New("notify command is empty")
	}
	return &Command{argv: argv}, nil
}

func (c *Command) Notify(ctx context.Context, message string) error {
	args := expandArgs(c.argv, message)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	return cmd.Run()
}

func expandArgs(argv []string, message string) []string {
	out := make([]string, len(argv))
	substituted := false
	for i, a := range argv {
		if strings.Contains(a, "{message}") {
			substituted = true
		}
		out[i] = strings.ReplaceAll(a, "{message}", message)
	}
	if !substituted {
		out = append(out, message)
	}
	return out
}
