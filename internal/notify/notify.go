package notify

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/dshills/apiguard/internal/toolchain"
)

// Notifier posts API check summaries as pull request comments through the gh CLI.
type Notifier struct {
	Runner toolchain.Runner
	// GH is the gh binary; defaults to "gh".
	GH string
	// Dir holds the transient comment body file; defaults to the OS temp dir.
	Dir    string
	Logger zerolog.Logger
}

// Publish replaces the last comment with body. When there is no comment to
// edit and the check failed, it creates a new one; a failed edit on a
// passing check is only logged. The body file is removed on every path.
func (n *Notifier) Publish(ctx context.Context, body string, good bool) error {
	f, err := os.CreateTemp(n.Dir, "apiguard-comment-*.md")
	if err != nil {
		return fmt.Errorf("creating comment file: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			n.Logger.Warn().Err(err).Str("path", path).Msg("removing comment file")
		}
	}()

	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return fmt.Errorf("writing comment file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing comment file: %w", err)
	}

	n.Logger.Info().Bool("good", good).Msg("commenting on PR")
	_, err = n.Runner.Run(ctx, n.command("--edit-last", "--body-file", path))
	if err == nil {
		return nil
	}
	if good {
		n.Logger.Info().Err(err).Msg("no comment to update, skipping for a passing check")
		return nil
	}

	n.Logger.Debug().Err(err).Msg("editing last comment failed, creating a new one")
	if _, err := n.Runner.Run(ctx, n.command("--body-file", path)); err != nil {
		return fmt.Errorf("creating PR comment: %w", err)
	}
	return nil
}

func (n *Notifier) command(args ...string) toolchain.Command {
	gh := n.GH
	if gh == "" {
		gh = "gh"
	}
	return toolchain.Command{
		Name: gh,
		Args: append([]string{"pr", "comment"}, args...),
	}
}
