package news

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCommand is the external news aggregator invocation.
const DefaultCommand = "python3 scripts/fetch_news.py"

// killGrace is how long the aggregator gets to exit after SIGINT before
// it is killed.
const killGrace = 10 * time.Second

// Runner executes the external news aggregator. The child inherits the
// process environment so translation API settings from .env reach it.
type Runner struct {
	argv []string
	log  zerolog.Logger
}

// NewRunner parses a shell-less command line ("prog arg arg"). Empty
// falls back to DefaultCommand.
func NewRunner(command string, log zerolog.Logger) *Runner {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	return &Runner{
		argv: strings.Fields(command),
		log:  log.With().Str("component", "news").Logger(),
	}
}

// Run executes the aggregator and waits for it. On context cancellation
// the child gets SIGINT, then SIGKILL after a grace period.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.argv) == 0 {
		return errors.New("empty aggregator command")
	}

	cmd := exec.CommandContext(ctx, r.argv[0], r.argv[1:]...)
	cmd.Env = os.Environ()
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = killGrace

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	r.log.Info().Str("command", strings.Join(r.argv, " ")).Msg("running news aggregator")
	start := time.Now()
	err := cmd.Run()

	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if line != "" {
			r.log.Debug().Msg(line)
		}
	}
	if err != nil {
		r.log.Error().Err(err).Msg("news aggregator failed")
		return err
	}
	r.log.Info().Dur("elapsed", time.Since(start)).Msg("news aggregator done")
	return nil
}
