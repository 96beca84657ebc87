package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposaland/internal/domain"
	"proposaland/internal/ports"
	"proposaland/internal/scoring"
)

func sampleDigest() ports.Digest {
	deadline := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	budget := 60000.0
	return ports.Digest{
		Day: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Opportunities: []domain.ScoredOpportunity{{
			Opportunity: domain.Opportunity{
				Title:           "Video_production for UNICEF",
				Organization:    "UNICEF",
				Deadline:        &deadline,
				Budget:          &budget,
				Currency:        "USD",
				ReferenceNumber: "RFP/2024/001",
				SourceURL:       "https://example.org/t/1",
			},
			RelevanceScore: 0.82,
			Priority:       domain.PriorityCritical,
		}},
		Report: scoring.Report{
			Total:                1,
			AverageScore:         0.82,
			PriorityDistribution: map[domain.Priority]int{domain.PriorityCritical: 1},
		},
	}
}

func TestFormatDigest(t *testing.T) {
	t.Parallel()

	text := FormatDigest(sampleDigest())

	assert.True(t, strings.HasPrefix(text, "*Proposaland digest 2024-06-01*"))
	assert.Contains(t, text, "1 opportunities scored, average 0.82")
	assert.Contains(t, text, "Critical: 1")
	assert.Contains(t, text, `*Video\_production for UNICEF* [Critical 0.82]`)
	assert.Contains(t, text, "Deadline: 2024-07-01")
	assert.Contains(t, text, "Budget: 60000 USD")
	assert.Contains(t, text, "Ref: `RFP/2024/001`")
}

func TestFormatDigestEmpty(t *testing.T) {
	t.Parallel()

	text := FormatDigest(ports.Digest{Day: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)})
	assert.Contains(t, text, "No opportunities passed the filters today.")
}

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL+"/", "token", "42")
	require.NoError(t, n.PublishDigest(context.Background(), sampleDigest()))

	assert.Equal(t, "/bottoken/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.Contains(t, gotText, "UNICEF")
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL, "token", "42").PublishDigest(context.Background(), sampleDigest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	err = NewNotifier(srv.URL, "", "").PublishDigest(context.Background(), sampleDigest())
	assert.EqualError(t, err, "telegram notifier misconfigured")
}
