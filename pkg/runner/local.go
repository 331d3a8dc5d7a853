package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/go-andiamo/splitter"

	"github.com/netwait/netwait/pkg/logger"
	"github.com/netwait/netwait/pkg/wait"
)

// ErrEmptyCommand is returned when a command string contains nothing
// to execute.
var ErrEmptyCommand = errors.New("empty command")

// Local executes each command as a process on the local host. Useful
// for tooling that probes the device indirectly (ping, snmpget, vendor
// CLIs) and for exercising the engine without a device.
type Local struct {
	log logger.Logger
}

// NewLocal creates a local runner.
func NewLocal() *Local {
	return &Local{log: logger.NewNoLogger()}
}

// SetLogger sets the logger used to trace command execution.
func (l *Local) SetLogger(log logger.Logger) {
	if log != nil {
		l.log = log
	}
}

// Run executes every command in order and captures its output. The
// first command that cannot run or exits non-zero aborts the batch
// with a TransportError.
func (l *Local) Run(ctx context.Context, commands []string) ([]wait.Response, error) {
	responses := make([]wait.Response, 0, len(commands))
	for _, command := range commands {
		out, err := l.runOne(ctx, command)
		if err != nil {
			return nil, &TransportError{Op: command, Err: err}
		}
		responses = append(responses, wait.Text(out))
	}
	return responses, nil
}

func (l *Local) runOne(ctx context.Context, command string) (string, error) {
	commandSplitter, err := splitter.NewSplitter(' ', splitter.SingleQuotes, splitter.DoubleQuotes)
	if err != nil {
		return "", err
	}
	argv, err := commandSplitter.Split(command, splitter.Trim("'\""), splitter.IgnoreEmpties)
	if err != nil {
		return "", err
	}
	if len(argv) == 0 {
		return "", ErrEmptyCommand
	}

	l.log.Debug("executing command", "command", command)
	c := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		l.log.Error("command failed", "command", command, "stderr", stderr.String())
		return "", err
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}
