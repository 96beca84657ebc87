package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"proposaland/internal/domain"
	"proposaland/internal/ports"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	// Telegram rejects messages above 4096 characters.
	maxMessageRunes = 4000
)

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *resty.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. An empty apiURL uses the public endpoint.
func NewNotifier(apiURL, botToken, chatID string) *Notifier {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		client: resty.New().
			SetBaseURL(strings.TrimRight(apiURL, "/")).
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(time.Second),
	}
}

// PublishDigest posts a Markdown summary of the digest to Telegram.
func (n *Notifier) PublishDigest(ctx context.Context, digest ports.Digest) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":                  n.chatID,
			"text":                     FormatDigest(digest),
			"parse_mode":               "Markdown",
			"disable_web_page_preview": "true",
		}).
		Post("/bot" + n.botToken + "/sendMessage")
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram error: %s", resp.Status())
	}

	return nil
}

// FormatDigest renders the digest as Telegram Markdown.
func FormatDigest(digest ports.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Proposaland digest %s*\n", digest.Day.Format("2006-01-02"))
	fmt.Fprintf(&b, "%d opportunities scored, average %.2f\n",
		digest.Report.Total, digest.Report.AverageScore)

	if counts := priorityLine(digest.Report.PriorityDistribution); counts != "" {
		b.WriteString(counts + "\n")
	}

	if len(digest.Opportunities) == 0 {
		b.WriteString("\nNo opportunities passed the filters today.")
		return b.String()
	}

	b.WriteString("\n")
	for i, s := range digest.Opportunities {
		entry := formatEntry(i+1, s)
		if len([]rune(b.String()))+len([]rune(entry)) > maxMessageRunes {
			fmt.Fprintf(&b, "_%d more not shown_", len(digest.Opportunities)-i)
			break
		}
		b.WriteString(entry)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatEntry(n int, s domain.ScoredOpportunity) string {
	opp := s.Opportunity
	var b strings.Builder
	fmt.Fprintf(&b, "%d. *%s* [%s %.2f]\n", n, escape(opp.Title), s.Priority, s.RelevanceScore)
	if opp.Organization != "" {
		fmt.Fprintf(&b, "   %s\n", escape(opp.Organization))
	}
	if opp.Deadline != nil {
		fmt.Fprintf(&b, "   Deadline: %s\n", opp.Deadline.Format("2006-01-02"))
	}
	if opp.Budget != nil {
		fmt.Fprintf(&b, "   Budget: %.0f %s\n", *opp.Budget, opp.Currency)
	}
	if opp.ReferenceNumber != "" {
		fmt.Fprintf(&b, "   Ref: `%s`\n", opp.ReferenceNumber)
	}
	if opp.SourceURL != "" {
		fmt.Fprintf(&b, "   %s\n", opp.SourceURL)
	}
	return b.String()
}

func priorityLine(dist map[domain.Priority]int) string {
	parts := make([]string, 0, len(domain.Priorities))
	for _, p := range domain.Priorities {
		if dist[p] > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", p, dist[p]))
		}
	}
	return strings.Join(parts, " | ")
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
