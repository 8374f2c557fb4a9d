package alerts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CNES/opensand-sub000/pkg/manager"
	"github.com/CNES/opensand-sub000/pkg/wire"
)

const (
	defaultQueueSize = 256
	defaultMinLevel  = wire.LevelError
)

// Config selects the events to forward and where.
type Config struct {
	MinLevel string          `json:"min_level"` // debug ... critical, default error
	Webhooks []WebhookConfig `json:"webhooks"`
}

// Level is the parsed MinLevel.
func (c *Config) Level() (wire.LogLevel, error) {
	if c.MinLevel == "" {
		return defaultMinLevel, nil
	}

	return wire.ParseLogLevel(c.MinLevel)
}

// Validate checks the level and every enabled webhook.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}

	for i := range c.Webhooks {
		if c.Webhooks[i].Enabled && c.Webhooks[i].URL == "" {
			return fmt.Errorf("webhook %d: %w", i, errWebhookURL)
		}
	}

	return nil
}

// Alerters builds the enabled webhooks of c.
func (c *Config) Alerters() ([]Alerter, error) {
	var alerters []Alerter

	for i := range c.Webhooks {
		if !c.Webhooks[i].Enabled {
			continue
		}

		w, err := NewWebhookAlerter(c.Webhooks[i])
		if err != nil {
			return nil, fmt.Errorf("webhook %d: %w", i, err)
		}

		alerters = append(alerters, w)
	}

	return alerters, nil
}

// Notifier is a manager.Observer forwarding the events at or above a level
// to its alerters. Callbacks never block; alerts beyond the queue are
// dropped.
type Notifier struct {
	alerters []Alerter
	minLevel wire.LogLevel
	now      func() time.Time

	queue   chan *EventAlert
	dropped atomic.Int64

	stopOnce sync.Once
	stopped  chan struct{}
	done     chan struct{}
	started  atomic.Bool
}

func NewNotifier(minLevel wire.LogLevel, alerters ...Alerter) *Notifier {
	return &Notifier{
		alerters: alerters,
		minLevel: minLevel,
		now:      time.Now,
		queue:    make(chan *EventAlert, defaultQueueSize),
		stopped:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Dropped is the number of alerts lost to a full queue.
func (n *Notifier) Dropped() int64 {
	return n.dropped.Load()
}

func (*Notifier) ProgramListChanged() {}

func (*Notifier) NewProbeValue(*manager.Probe, uint32, float64) {}

func (n *Notifier) NewLog(program *manager.Program, name string, level wire.LogLevel, text string) {
	if level < n.minLevel {
		return
	}

	alert := &EventAlert{
		Level:     level.String(),
		Program:   program.FullName(),
		Event:     name,
		Text:      text,
		Timestamp: n.now().UTC().Format(time.RFC3339),
	}

	select {
	case n.queue <- alert:
	default:
		n.dropped.Add(1)
	}
}

// Start sends the queued alerts until ctx is done or Stop is called.
func (n *Notifier) Start(ctx context.Context) error {
	if !n.started.CompareAndSwap(false, true) {
		return nil
	}

	defer close(n.done)

	log.Printf("Starting notifier with %d alerter(s), level %s and above", len(n.alerters), n.minLevel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-n.stopped:
			return nil
		case alert := <-n.queue:
			n.send(ctx, alert)
		}
	}
}

func (n *Notifier) Stop(ctx context.Context) error {
	n.stopOnce.Do(func() { close(n.stopped) })

	if !n.started.Load() {
		return nil
	}

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) send(ctx context.Context, alert *EventAlert) {
	for _, a := range n.alerters {
		if !a.IsEnabled() {
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, webhookTimeout)
		err := a.Alert(sendCtx, alert)
		cancel()

		if err != nil && !errors.Is(err, errWebhookCooldown) {
			log.Printf("Failed to send alert for %s: %v", alert.Key(), err)
		}
	}
}
