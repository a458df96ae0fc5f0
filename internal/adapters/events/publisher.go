package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Subjects published by the workflows, relative to the configured prefix.
const (
	FamilyCreated         = "family.created"
	FamilyMembersAdded    = "family.members_added"
	FamilyArchived        = "family.archived"
	FamilyRestored        = "family.restored"
	FamilyDeleted         = "family.deleted"
	MemberUpdated         = "member.updated"
	EnrollmentsReconciled = "member.enrollments_reconciled"
)

// Publisher emits domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Envelope wraps every published payload.
type Envelope struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope encodes payload under a fresh event id.
func NewEnvelope(subject string, payload any, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	return Envelope{ID: uuid.NewString(), Subject: subject, OccurredAt: now.UTC(), Payload: raw}, nil
}

// NATSConfig configures the NATS connection.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the defaults used when only a URL is configured.
func DefaultNATSConfig(url string) NATSConfig {
	if url == "" {
		url = nats.DefaultURL
	}
	return NATSConfig{
		URL:           url,
		SubjectPrefix: "household.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSPublisher publishes envelopes on core NATS subjects.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	now    func() time.Time
}

// NewNATSPublisher connects to NATS.
// PRE: cfg.URL points at a reachable server
// POST: Returns a connected publisher; caller must Close it
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("household"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("events_event", "event", "nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("events_event", "event", "nats_reconnected", "url", nc.ConnectedUrl())
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, prefix: cfg.SubjectPrefix, now: time.Now}, nil
}

// Publish sends payload on <prefix>.<subject> with the event id as the message id header.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	env, err := NewEnvelope(subject, payload, p.now())
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	msg := nats.NewMsg(p.subject(subject))
	msg.Header.Set(nats.MsgIdHdr, env.ID)
	msg.Data = data
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) subject(s string) string {
	if p.prefix == "" {
		return s
	}
	return p.prefix + "." + s
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// NoopPublisher logs events without delivering them.
type NoopPublisher struct{}

// Publish logs the subject.
func (NoopPublisher) Publish(_ context.Context, subject string, _ any) error {
	slog.Debug("events_event", "event", "noop_publish", "subject", subject)
	return nil
}

// Recorder keeps published events in memory. Used in tests and dev mode.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

// Publish appends the event.
func (r *Recorder) Publish(_ context.Context, subject string, payload any) error {
	env, err := NewEnvelope(subject, payload, time.Now())
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.events = append(r.events, env)
	r.mu.Unlock()
	return nil
}

// Subjects returns the recorded subjects in order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}
