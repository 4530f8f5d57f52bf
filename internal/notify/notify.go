package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Event string

const (
	EventDomainDown      Event = "domain_down"
	EventDomainRecovered Event = "domain_recovered"
)

// Notifier forwards status-transition events to the outside world.
// Delivery is fire-and-forget: callers log failures and move on.
type Notifier interface {
	Notify(ctx context.Context, accountID uuid.UUID, event Event, domain, message string) error
}

// LogNotifier writes events to the log. Used when no channel is
// configured and as the fallback in development.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, accountID uuid.UUID, event Event, domain, message string) error {
	n.logger.Info("notification",
		zap.String("event", string(event)),
		zap.String("account_id", accountID.String()),
		zap.String("domain", domain),
		zap.String("message", message),
	)
	return nil
}
