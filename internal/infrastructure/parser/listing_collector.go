package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"proposaland/internal/collector"
	"proposaland/internal/domain"
)

const defaultUserAgent = "proposaland/1.0"

// Selector defaults for listing pages. Every key can be overridden through site options.
var listingDefaults = map[string]string{
	"item":         ".opportunity",
	"title":        ".title",
	"link":         "a[href]",
	"description":  ".description",
	"organization": ".organization",
	"location":     ".location",
	"deadline":     ".deadline",
	"budget":       ".budget",
	"reference":    ".reference",
	"published":    ".published",
	"next":         "a[rel=next]",
}

// ListingCollector scrapes HTML notice listings with CSS selectors taken from site options.
type ListingCollector struct {
	client    *http.Client
	userAgent string
}

var _ collector.Collector = (*ListingCollector)(nil)

// NewListingCollector wires an HTTP client; a nil client gets a 20 second timeout.
func NewListingCollector(client *http.Client, userAgent string) *ListingCollector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &ListingCollector{client: client, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (l *ListingCollector) Name() string {
	return "listing"
}

// Collect walks the listing and its follow-up pages, up to the max_pages option.
// Pages are followed through the "next" selector or, when page_param is set, by
// incrementing that query parameter.
func (l *ListingCollector) Collect(ctx context.Context, req collector.Request) ([]domain.Opportunity, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no url provided for site %s", req.SiteName)
	}
	maxPages, err := strconv.Atoi(req.Option("max_pages", "1"))
	if err != nil || maxPages < 1 {
		maxPages = 1
	}
	pageParam := req.Option("page_param", "")
	limiter := pageLimiter(req)

	results := make([]domain.Opportunity, 0)
	seen := map[string]struct{}{}

	pageURL := req.URL
	for page := 1; page <= maxPages && pageURL != ""; page++ {
		if pageParam != "" {
			pageURL, err = buildPageURL(req.URL, pageParam, page)
			if err != nil {
				return nil, err
			}
		}

		base, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page url %s: %w", pageURL, err)
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		doc, err := fetchDocument(ctx, l.client, l.userAgent, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		found := 0
		doc.Find(selector(req, "item")).Each(func(_ int, item *goquery.Selection) {
			opp, ok := parseItem(item, base, req)
			if !ok {
				return
			}
			found++
			key := opp.SourceURL
			if key == "" {
				key = strings.ToLower(opp.Title)
			}
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			results = append(results, opp)
		})

		if found == 0 {
			break
		}
		if pageParam == "" {
			pageURL = nextPageURL(doc, base, selector(req, "next"))
		}
	}

	return results, nil
}

// pageLimiter paces page requests to one site with the requests_per_second option.
// Zero or negative disables pacing.
func pageLimiter(req collector.Request) *rate.Limiter {
	rps, err := strconv.ParseFloat(req.Option("requests_per_second", "2"), 64)
	if err != nil || rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 2)
}

func fetchDocument(ctx context.Context, client *http.Client, userAgent, pageURL string) (*goquery.Document, error) {
	resp, err := get(ctx, client, userAgent, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func get(ctx context.Context, client *http.Client, userAgent, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", target, resp.Status)
	}
	return resp, nil
}

func parseItem(item *goquery.Selection, base *url.URL, req collector.Request) (domain.Opportunity, bool) {
	link := item.Find(selector(req, "link")).First()

	title := textOf(item, selector(req, "title"))
	if title == "" {
		title = collapse(link.Text())
	}
	if title == "" {
		return domain.Opportunity{}, false
	}

	opp := domain.Opportunity{
		Title:           title,
		Description:     textOf(item, selector(req, "description")),
		Organization:    textOf(item, selector(req, "organization")),
		Location:        textOf(item, selector(req, "location")),
		ReferenceNumber: textOf(item, selector(req, "reference")),
		DeadlineText:    textOf(item, selector(req, "deadline")),
		Source:          req.SiteName,
		PublishedAt:     req.Day,
	}
	if opp.Organization == "" {
		opp.Organization = req.Option("organization", req.SiteName)
	}
	if href, ok := link.Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			opp.SourceURL = base.ResolveReference(ref).String()
		}
	}
	if published, ok := domain.ParseDeadline(textOf(item, selector(req, "published"))); ok {
		opp.PublishedAt = published
	}

	enrich(&opp, textOf(item, selector(req, "budget")))
	return opp, true
}

// enrich fills deadline and budget from dedicated fields first, then from free text.
func enrich(opp *domain.Opportunity, budgetText string) {
	if d, ok := domain.ParseDeadline(opp.DeadlineText); ok {
		opp.Deadline = &d
	} else if d, ok := domain.ExtractDeadline(opp.Title + " " + opp.Description + " " + opp.DeadlineText); ok {
		opp.Deadline = &d
	}

	if v, currency, ok := domain.ExtractBudget(budgetText); ok {
		opp.Budget, opp.Currency = &v, currency
	} else if v, ok := domain.ParseBudget(budgetText); ok {
		opp.Budget = &v
	} else if v, currency, ok := domain.ExtractBudget(opp.Description); ok {
		opp.Budget, opp.Currency = &v, currency
	}
}

func nextPageURL(doc *goquery.Document, base *url.URL, sel string) string {
	href, ok := doc.Find(sel).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	next := base.ResolveReference(ref)
	if next.String() == base.String() {
		return ""
	}
	return next.String()
}

func buildPageURL(base, param string, page int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set(param, strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func selector(req collector.Request, key string) string {
	return req.Option(key, listingDefaults[key])
}

func textOf(sel *goquery.Selection, css string) string {
	if css == "" {
		return ""
	}
	return collapse(sel.Find(css).First().Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
