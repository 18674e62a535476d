// Package notify delivers operator alerts for noteworthy chain events
// (group resolutions, group policy updates, staged proposals). Notifications are dispatched
// to all registered senders (Telegram, Discord) and can be filtered by
// event type so operators receive only the alerts they care about.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/chainbook/internal/domain"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Notifier dispatches notifications to one or more Senders. It maintains a
// set of allowed event types; Notify only forwards messages whose event
// type is in the allowed set.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that will deliver to the given senders.
// Only events whose type appears in the events slice will be forwarded by
// Notify. If events is empty, all event types are allowed.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders if the event type passes the
// filter.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// dispatch iterates over all senders. Errors from individual senders are
// collected and returned as a combined error; a single sender failure does
// not prevent delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// Name implements service.EventSink.
func (n *Notifier) Name() string { return "notifier" }

// HandleEvents implements service.EventSink: it turns alert-worthy applied
// events into operator notifications. Routine traffic (placements, matches)
// is intentionally not forwarded.
func (n *Notifier) HandleEvents(ctx context.Context, events []domain.Event) error {
	for _, ev := range events {
		switch ev.Type {
		case domain.EventGroupResolved:
			_ = n.Notify(ctx, string(ev.Type),
				"Group resolved",
				fmt.Sprintf("Betting market group %s settled at %s.", ev.Subject, ev.BlockTime.Format("2006-01-02 15:04:05 MST")),
			)
		case domain.EventGroupUpdated:
			_ = n.Notify(ctx, string(ev.Type),
				"Group updated",
				fmt.Sprintf("Betting market group %s changed policy at %s.", ev.Subject, ev.BlockTime.Format("2006-01-02 15:04:05 MST")),
			)
		case domain.EventProposalStaged:
			_ = n.Notify(ctx, string(ev.Type),
				"Proposal staged",
				fmt.Sprintf("Proposal %s awaits approval.", ev.Subject),
			)
		}
	}
	return nil
}
