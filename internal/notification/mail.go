package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"punchclock/internal/platform/config"
)

// ErrMailQueueFull is returned when the outgoing mail queue is saturated.
var ErrMailQueueFull = errors.New("mail queue full")

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

const mailQueueSize = 64

// MailPublisher e-mails reviewers about events that need their attention.
// Messages are queued and sent by Run so SMTP latency never reaches the
// request path.
type MailPublisher struct {
	sender Sender
	from   string
	to     []string
	queue  chan *gomail.Message
	logger *slog.Logger
}

// NewMailPublisher returns nil when no SMTP host or recipient is configured.
func NewMailPublisher(cfg config.MailConfig, logger *slog.Logger) *MailPublisher {
	if cfg.Host == "" || len(cfg.To) == 0 {
		return nil
	}
	return newMailPublisher(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, cfg.To, logger)
}

func newMailPublisher(sender Sender, from string, to []string, logger *slog.Logger) *MailPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailPublisher{
		sender: sender,
		from:   from,
		to:     to,
		queue:  make(chan *gomail.Message, mailQueueSize),
		logger: logger,
	}
}

func (p *MailPublisher) Publish(_ context.Context, event Event) error {
	if !event.Kind.ForReviewers() {
		return nil
	}
	select {
	case p.queue <- p.message(event):
		return nil
	default:
		return ErrMailQueueFull
	}
}

// Run sends queued messages until ctx is cancelled.
func (p *MailPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-p.queue:
			if err := p.sender.DialAndSend(m); err != nil {
				p.logger.WarnContext(ctx, "failed to send notification mail", "error", err)
			}
		}
	}
}

func (p *MailPublisher) message(event Event) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", p.from)
	m.SetHeader("To", p.to...)
	m.SetHeader("Subject", subjectFor(event))
	m.SetBody("text/plain", bodyFor(event))
	return m
}

func subjectFor(event Event) string {
	switch event.Kind {
	case KindPunchEscalated:
		return "Punch awaiting approval"
	case KindGeolocationIssue:
		return "Punch with poor location accuracy"
	case KindOvertimeRequested:
		return "Overtime request awaiting review"
	default:
		return "Punch clock notification"
	}
}

func bodyFor(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", event.Kind)
	if !event.WorkerID.IsNil() {
		fmt.Fprintf(&b, "Worker: %s\n", event.WorkerID)
	}
	if event.EntityID != "" {
		fmt.Fprintf(&b, "Reference: %s\n", event.EntityID)
	}
	if event.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", event.Reason)
	}
	fmt.Fprintf(&b, "Pending approvals in the group: %d\n", event.PendingCount)
	fmt.Fprintf(&b, "At: %s\n", event.OccurredAt.UTC().Format("2006-01-02 15:04:05 MST"))
	return b.String()
}
