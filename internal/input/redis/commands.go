package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vehicleids/internal/attack"
	"vehicleids/internal/logger"
)

// Popper yields raw queue messages. A nil message with nil error means nothing arrived.
type Popper interface {
	Pop(ctx context.Context) ([]byte, error)
}

// ModeSetter applies attack mode commands.
type ModeSetter interface {
	SetAttackMode(raw string) (attack.Mode, error)
}

// Command is an operator message queued in Redis, e.g. {"mode":"flood"}.
// A missing or null mode clears the active attack.
type Command struct {
	Mode *string `json:"mode"`
}

// ParseCommand decodes a queued command.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	return cmd, nil
}

// CommandLoop consumes operator commands until ctx is cancelled.
type CommandLoop struct {
	popper  Popper
	target  ModeSetter
	backoff time.Duration
}

// NewCommandLoop creates a loop that applies commands from popper to target.
func NewCommandLoop(popper Popper, target ModeSetter) *CommandLoop {
	return &CommandLoop{popper: popper, target: target, backoff: time.Second}
}

// Run blocks until ctx is done. Queue errors are logged and retried after a backoff;
// malformed or rejected commands are logged and skipped.
func (l *CommandLoop) Run(ctx context.Context) {
	logger.Infof("Operator command consumer started")
	for {
		if ctx.Err() != nil {
			logger.Infof("Operator command consumer stopped")
			return
		}

		payload, err := l.popper.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Infof("Operator command consumer stopped")
				return
			}
			logger.Warnf("Operator command pop failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(l.backoff):
			}
			continue
		}
		if payload == nil {
			continue
		}
		l.apply(payload)
	}
}

func (l *CommandLoop) apply(payload []byte) {
	cmd, err := ParseCommand(payload)
	if err != nil {
		logger.Warnf("Skipping operator command %q: %v", payload, err)
		return
	}
	raw := attack.OffKeyword
	if cmd.Mode != nil {
		raw = *cmd.Mode
	}
	mode, err := l.target.SetAttackMode(raw)
	if err != nil {
		logger.Warnf("Operator command %q rejected: %v", raw, err)
		return
	}
	logger.Infof("Operator command applied from queue: attack mode %s", mode)
}
