// Package notify delivers opportunity alerts over Telegram and email.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/matheuskafuri/dropwatch/internal/config"
	"github.com/matheuskafuri/dropwatch/internal/metrics"
	"github.com/matheuskafuri/dropwatch/internal/store"
)

// Notifier delivers a batch of alerts over one channel. It returns the IDs
// it delivered, which may be a prefix of ops when it fails part way.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ops []store.Opportunity) ([]string, error)
}

// Manager applies the confidence threshold and fans alerts out to every
// configured channel.
type Manager struct {
	notifiers     []Notifier
	minConfidence float64
	log           *zap.Logger
	metrics       *metrics.Metrics
}

func NewManager(minConfidence float64, log *zap.Logger, m *metrics.Metrics, notifiers ...Notifier) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{notifiers: notifiers, minConfidence: minConfidence, log: log, metrics: m}
}

// Enabled reports whether any channel is configured.
func (m *Manager) Enabled() bool {
	return len(m.notifiers) > 0
}

// Eligible returns the opportunities scoring at or above the threshold.
func (m *Manager) Eligible(ops []store.Opportunity) []store.Opportunity {
	var out []store.Opportunity
	for _, o := range ops {
		if o.ConfidenceScore >= m.minConfidence {
			out = append(out, o)
		}
	}
	return out
}

// Notify sends eligible opportunities on every channel. It returns the IDs
// delivered by at least one channel, plus the joined errors of channels
// that failed. A channel that fails part way still counts for the IDs it
// delivered before failing.
func (m *Manager) Notify(ctx context.Context, ops []store.Opportunity) ([]string, error) {
	eligible := m.Eligible(ops)
	if len(eligible) == 0 || !m.Enabled() {
		return nil, nil
	}

	var errs []error
	delivered := make(map[string]bool, len(eligible))
	for _, n := range m.notifiers {
		sent, err := n.Notify(ctx, eligible)
		for _, id := range sent {
			delivered[id] = true
		}
		if m.metrics != nil {
			m.metrics.RecordNotification(n.Name(), err)
		}
		if err != nil {
			m.log.Warn("notification failed",
				zap.String("channel", n.Name()),
				zap.Int("delivered", len(sent)),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		m.log.Info("notification sent", zap.String("channel", n.Name()), zap.Int("count", len(sent)))
	}

	var ids []string
	for _, o := range eligible {
		if delivered[o.SourceID] {
			ids = append(ids, o.SourceID)
		}
	}
	return ids, errors.Join(errs...)
}

func sourceIDs(ops []store.Opportunity) []string {
	ids := make([]string, len(ops))
	for i, o := range ops {
		ids[i] = o.SourceID
	}
	return ids
}

// FromConfig builds the notifiers enabled in cfg.
func FromConfig(cfg *config.Config) []Notifier {
	var out []Notifier
	if t := cfg.Telegram(); t != nil {
		out = append(out, NewTelegram(t.BotToken, t.ChatID))
	}
	if e := cfg.Email(); e != nil {
		out = append(out, NewEmail(*e))
	}
	return out
}
