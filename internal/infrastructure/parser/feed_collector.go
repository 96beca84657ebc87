package parser

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"proposaland/internal/collector"
	"proposaland/internal/domain"
)

// FeedCollector reads RSS or Atom feeds of tender and grant notices.
type FeedCollector struct {
	client    *http.Client
	userAgent string
}

var _ collector.Collector = (*FeedCollector)(nil)

// NewFeedCollector wires an HTTP client; a nil client gets a 20 second timeout.
func NewFeedCollector(client *http.Client, userAgent string) *FeedCollector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &FeedCollector{client: client, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (f *FeedCollector) Name() string {
	return "feed"
}

// Collect parses the feed at req.URL. With the max_age_days option, items
// published more than that many days before req.Day are skipped.
func (f *FeedCollector) Collect(ctx context.Context, req collector.Request) ([]domain.Opportunity, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no url provided for site %s", req.SiteName)
	}

	resp, err := get(ctx, f.client, f.userAgent, req.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var cutoff time.Time
	if days, err := strconv.Atoi(req.Option("max_age_days", "0")); err == nil && days > 0 && !req.Day.IsZero() {
		cutoff = req.Day.AddDate(0, 0, -days)
	}

	out := make([]domain.Opportunity, 0, len(feed.Items))
	for _, it := range feed.Items {
		title := collapse(it.Title)
		if title == "" {
			continue
		}

		published := req.Day
		if it.PublishedParsed != nil {
			published = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			published = *it.UpdatedParsed
		}
		if !cutoff.IsZero() && published.Before(cutoff) {
			continue
		}

		body := it.Description
		if body == "" {
			body = it.Content
		}

		opp := domain.Opportunity{
			Title:        title,
			Description:  stripHTML(body),
			Organization: req.Option("organization", req.SiteName),
			SourceURL:    strings.TrimSpace(it.Link),
			Source:       req.SiteName,
			PublishedAt:  published,
		}
		if it.GUID != "" {
			opp.Extra = map[string]string{"guid": it.GUID}
		}
		if len(it.Categories) > 0 {
			opp.Location = strings.Join(it.Categories, ", ")
		}
		enrich(&opp, "")
		out = append(out, opp)
	}
	return out, nil
}

func stripHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return collapse(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	return collapse(doc.Text())
}
