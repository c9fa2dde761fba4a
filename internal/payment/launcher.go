// Package payment is the hand-off to the external payment collaborator. The
// charge itself happens out-of-band; this package only surfaces the payment
// URL to the user and reports the completion flag back so the controller can
// recheck deposit confirmation.
package payment

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alanyoungcy/bidroom/internal/domain"
)

// RedirectLauncher prints the payment URL for the user to open in a browser
// and reports the flow as completed. Deposit confirmation is verified
// separately by the controller, so an unpaid hand-off resolves to "deposit
// pending" rather than a false success.
type RedirectLauncher struct {
	out    io.Writer
	logger *slog.Logger
}

// NewRedirectLauncher creates a launcher writing hand-off instructions to out.
func NewRedirectLauncher(out io.Writer, logger *slog.Logger) *RedirectLauncher {
	return &RedirectLauncher{
		out:    out,
		logger: logger.With(slog.String("component", "payment")),
	}
}

// Launch surfaces the payment URL and returns completed=true once the
// hand-off is done.
func (l *RedirectLauncher) Launch(ctx context.Context, handle domain.PaymentHandle) (bool, error) {
	l.logger.Info("payment hand-off",
		slog.String("payment_id", handle.ID),
		slog.Int64("amount", handle.Amount),
	)
	if _, err := fmt.Fprintf(l.out, ">> Complete the deposit payment of %d cents at: %s\n", handle.Amount, handle.URL); err != nil {
		return false, fmt.Errorf("payment: surface hand-off: %w", err)
	}
	return true, nil
}

var _ domain.PaymentLauncher = (*RedirectLauncher)(nil)
