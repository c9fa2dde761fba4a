package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// TerminalSender writes alerts to an io.Writer, one line per alert. It is
// the toast stand-in for the headless client and defaults to stdout in the
// binary.
type TerminalSender struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalSender creates a TerminalSender writing to out.
func NewTerminalSender(out io.Writer) *TerminalSender {
	return &TerminalSender{out: out}
}

// Send writes the alert as a single "title: message" line.
func (t *TerminalSender) Send(ctx context.Context, title, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := fmt.Fprintf(t.out, ">> %s: %s\n", title, message); err != nil {
		return fmt.Errorf("terminal: write alert: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (t *TerminalSender) Name() string {
	return "terminal"
}
