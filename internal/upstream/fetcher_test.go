package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/botfleet/linkrelay/internal/bot"
)

func TestParseAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"bare address", "sub.example.com\n", "sub.example.com", false},
		{"bare url", "https://sub.example.com/x", "https://sub.example.com/x", false},
		{"json data field", `{"code":0,"data":"sub.example.com"}`, "sub.example.com", false},
		{"json url field", `{"url":"https://sub.example.com"}`, "https://sub.example.com", false},
		{"json redirect_url field", `{"redirect_url":"https://jump.example.com"}`, "https://jump.example.com", false},
		{"empty body", "", "", true},
		{"json without address", `{"code":1}`, "", true},
		{"invalid json", `{nope`, "", true},
		{"prose body", "service is down right now", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseAddress([]byte(tc.body))
			if tc.wantErr {
				require.ErrorIs(t, err, bot.ErrUpstreamFetch)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFetchStructuredPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"data":"sub.example.com"}`))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "sub.example.com", got)
}

func TestFetchBareText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("dl.example.com"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "dl.example.com", got)
}

func TestFetchNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, bot.ErrUpstreamFetch)
}

func TestFetchConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // nothing is listening anymore

	f := New(Config{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, bot.ErrUpstreamFetch)
}

func TestFetchExpiredContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(ctx, "http://127.0.0.1:0/")
	require.ErrorIs(t, err, bot.ErrUpstreamFetch)
}
