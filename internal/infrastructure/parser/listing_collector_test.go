package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"proposaland/internal/collector"
)

const listingPage1 = `
<html><body>
<div class="opportunity">
  <h3 class="title"><a href="/notice/1">Video production for nutrition campaign</a></h3>
  <p class="description">Closing date: 15 July 2024. Budget USD 60,000.</p>
  <span class="organization">UNICEF</span>
  <span class="location">Kathmandu, Nepal</span>
  <span class="reference">RFP/2024/001</span>
</div>
<div class="opportunity">
  <h3 class="title"><a href="https://other.example/notice/2">Photo library</a></h3>
  <span class="deadline">2024-08-01</span>
  <span class="budget">EUR 1.2 million</span>
</div>
<div class="opportunity"><span class="title"> </span></div>
<a rel="next" href="/page2">Next</a>
</body></html>`

const listingPage2 = `
<html><body>
<div class="opportunity">
  <h3 class="title"><a href="/notice/3">Podcast series</a></h3>
</div>
<div class="opportunity">
  <h3 class="title"><a href="/notice/1">Video production for nutrition campaign</a></h3>
</div>
</body></html>`

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	u, err := buildPageURL("https://www.ungm.org/Public/Notice?type=rfp", "page", 3)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if parsed.Host != "www.ungm.org" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}
	q := parsed.Query()
	if q.Get("page") != "3" || q.Get("type") != "rfp" {
		t.Fatalf("unexpected query: %s", parsed.RawQuery)
	}
}

func TestListingCollectorCollect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/notices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(listingPage1))
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingPage2))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	lc := NewListingCollector(server.Client(), "test-agent")
	opps, err := lc.Collect(context.Background(), collector.Request{
		Day:      day,
		SiteName: "UNGM",
		URL:      server.URL + "/notices",
		Options:  map[string]string{"max_pages": "2"},
	})
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	if len(opps) != 3 {
		t.Fatalf("expected 3 opportunities, got %d", len(opps))
	}

	first := opps[0]
	if first.SourceURL != server.URL+"/notice/1" {
		t.Fatalf("unexpected url: %s", first.SourceURL)
	}
	if first.Organization != "UNICEF" || first.Location != "Kathmandu, Nepal" {
		t.Fatalf("unexpected organization/location: %q %q", first.Organization, first.Location)
	}
	if first.ReferenceNumber != "RFP/2024/001" {
		t.Fatalf("unexpected reference: %s", first.ReferenceNumber)
	}
	if first.Deadline == nil || first.Deadline.Format("2006-01-02") != "2024-07-15" {
		t.Fatalf("unexpected deadline: %v", first.Deadline)
	}
	if first.Budget == nil || *first.Budget != 60000 || first.Currency != "USD" {
		t.Fatalf("unexpected budget: %v %s", first.Budget, first.Currency)
	}
	if !first.PublishedAt.Equal(day) || first.Source != "UNGM" {
		t.Fatalf("unexpected published/source: %v %s", first.PublishedAt, first.Source)
	}

	second := opps[1]
	if second.Organization != "UNGM" {
		t.Fatalf("expected site name as organization, got %q", second.Organization)
	}
	if second.Budget == nil || *second.Budget != 1.2e6 || second.Currency != "EUR" {
		t.Fatalf("unexpected budget: %v %s", second.Budget, second.Currency)
	}
	if second.Deadline == nil || second.Deadline.Format("2006-01-02") != "2024-08-01" {
		t.Fatalf("unexpected deadline: %v", second.Deadline)
	}

	if opps[2].Title != "Podcast series" {
		t.Fatalf("unexpected third title: %s", opps[2].Title)
	}
}

func TestListingCollectorHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	lc := NewListingCollector(server.Client(), "")
	if _, err := lc.Collect(context.Background(), collector.Request{SiteName: "UNDP", URL: server.URL}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if _, err := lc.Collect(context.Background(), collector.Request{SiteName: "UNDP"}); err == nil {
		t.Fatal("expected error for missing url")
	}
}

func TestPageLimiter(t *testing.T) {
	t.Parallel()

	off := pageLimiter(collector.Request{Options: map[string]string{"requests_per_second": "0"}})
	if off.Limit() != rate.Inf {
		t.Fatalf("expected unlimited limiter, got %v", off.Limit())
	}

	paced := pageLimiter(collector.Request{})
	if paced.Limit() != 2 || paced.Burst() != 2 {
		t.Fatalf("unexpected default pacing: limit=%v burst=%d", paced.Limit(), paced.Burst())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := paced.Wait(ctx); err == nil {
		t.Fatalf("expected cancelled wait to fail")
	}
}
