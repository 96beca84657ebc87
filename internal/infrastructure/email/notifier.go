package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"

	"proposaland/internal/config"
	"proposaland/internal/domain"
	"proposaland/internal/ports"
)

type sendFunc func(addr string, auth smtp.Auth, msg *email.Email) error

// Notifier mails the daily digest over SMTP with exported reports attached.
type Notifier struct {
	cfg  config.EmailConfig
	send sendFunc
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier builds an SMTP notifier from configuration.
func NewNotifier(cfg config.EmailConfig) *Notifier {
	return &Notifier{
		cfg: cfg,
		send: func(addr string, auth smtp.Auth, msg *email.Email) error {
			return msg.Send(addr, auth)
		},
	}
}

// PublishDigest builds the message and sends it. Servers without AUTH are retried unauthenticated.
func (n *Notifier) PublishDigest(ctx context.Context, digest ports.Digest) error {
	if !n.cfg.Enabled() {
		return fmt.Errorf("email notifier misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := n.Message(digest)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPServer, n.cfg.SMTPPort)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPServer)
	}

	err = n.send(addr, auth, msg)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = n.send(addr, nil, msg)
	}
	if err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}
	return nil
}

// Message assembles the digest email.
func (n *Notifier) Message(digest ports.Digest) (*email.Email, error) {
	msg := email.NewEmail()
	msg.From = n.cfg.From
	if msg.From == "" {
		msg.From = n.cfg.Username
	}
	msg.To = append([]string(nil), n.cfg.Recipients...)

	subject := n.cfg.SubjectTemplate
	if subject == "" {
		subject = "Proposaland opportunities {date}"
	}
	msg.Subject = strings.ReplaceAll(subject, "{date}", digest.Day.Format("2006-01-02"))
	msg.Text = []byte(body(digest))

	for _, path := range digest.Attachments {
		if _, err := msg.AttachFile(path); err != nil {
			return nil, fmt.Errorf("attach %s: %w", path, err)
		}
	}
	return msg, nil
}

func body(digest ports.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Proposaland daily digest for %s\n\n", digest.Day.Format("2006-01-02"))
	fmt.Fprintf(&b, "Opportunities scored: %d\n", digest.Report.Total)
	fmt.Fprintf(&b, "Average score: %.2f\n", digest.Report.AverageScore)
	for _, p := range domain.Priorities {
		fmt.Fprintf(&b, "%s: %d\n", p, digest.Report.PriorityDistribution[p])
	}

	if len(digest.Opportunities) == 0 {
		b.WriteString("\nNo opportunities passed the filters today.\n")
		return b.String()
	}

	b.WriteString("\nTop opportunities\n")
	for i, s := range digest.Opportunities {
		opp := s.Opportunity
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, opp.Title)
		fmt.Fprintf(&b, "   Priority: %s (%.2f)\n", s.Priority, s.RelevanceScore)
		if opp.Organization != "" {
			fmt.Fprintf(&b, "   Organization: %s\n", opp.Organization)
		}
		if opp.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", opp.Location)
		}
		if opp.Deadline != nil {
			fmt.Fprintf(&b, "   Deadline: %s\n", opp.Deadline.Format("2006-01-02"))
		}
		if opp.Budget != nil {
			fmt.Fprintf(&b, "   Budget: %.0f %s\n", *opp.Budget, opp.Currency)
		}
		if opp.ReferenceNumber != "" {
			fmt.Fprintf(&b, "   Reference: %s\n", opp.ReferenceNumber)
		}
		if opp.SourceURL != "" {
			fmt.Fprintf(&b, "   Link: %s\n", opp.SourceURL)
		}
	}
	if len(digest.Attachments) > 0 {
		b.WriteString("\nFull reports are attached.\n")
	}
	return b.String()
}
