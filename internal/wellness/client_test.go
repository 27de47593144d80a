package wellness

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastingStatusDecodes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/fasting/status", r.URL.Path)
		assert.Equal(t, "owner-1", r.URL.Query().Get("owner"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"is_active": true, "protocol": "16:8", "elapsed_hours": 12.5, "target_hours": 16}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "secret")
	got, err := c.FastingStatus(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, "16:8", got.Protocol)
	assert.Equal(t, 12.5, got.ElapsedHours)
}

func TestQuotaDenialsAreEmptyResults(t *testing.T) {
	for _, status := range []int{
		http.StatusTooManyRequests,
		http.StatusPaymentRequired,
		http.StatusNotFound,
	} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(ts.URL, "")
		got, err := c.Streaks(context.Background(), "owner-1")
		assert.NoError(t, err, "status %d must not be an error", status)
		assert.Empty(t, got)

		ts.Close()
	}
}

func TestServerErrorsPropagate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "")
	_, err := c.Level(context.Background(), "owner-1")
	assert.Error(t, err)
}

func TestFastingSafetyDefaultsToSafe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "")
	got, err := c.FastingSafety(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.True(t, got.Safe)
	assert.Empty(t, got.Warnings)
}

func TestFastingSafetyWarnings(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"safe": false, "warnings": ["extended fasting not advised"]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "")
	got, err := c.FastingSafety(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.False(t, got.Safe)
	assert.Equal(t, []string{"extended fasting not advised"}, got.Warnings)
}
