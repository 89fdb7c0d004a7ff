package docsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/halcyonhealth/dashforge/internal/cache"
	"github.com/halcyonhealth/dashforge/internal/model"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "dashforge-test",
		MaxBodyBytes: 1_000_000,
	}
}

func TestFetcher_FetchExtractsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.WriteHeader(http.StatusNotFound)
		default:
			_, _ = w.Write([]byte(`<html><body><p>Program delivers 250% ROI.</p><script>bad()</script></body></html>`))
		}
	}))
	defer server.Close()

	f := NewFetcher(testHTTPConfig(), nil)
	text, err := f.Fetch(context.Background(), server.URL+"/whitepaper")
	if err != nil {
		t.Fatalf("expected fetch, got %v", err)
	}
	if !strings.Contains(text, "250% ROI") {
		t.Errorf("expected extracted text, got %q", text)
	}
	if strings.Contains(text, "bad()") {
		t.Error("script content must not survive extraction")
	}
}

func TestFetcher_RobotsDisallow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		_, _ = w.Write([]byte("should never be served"))
	}))
	defer server.Close()

	f := NewFetcher(testHTTPConfig(), nil)
	if _, err := f.Fetch(context.Background(), server.URL+"/private/report"); err == nil {
		t.Fatal("expected robots.txt disallow to block the fetch")
	}
}

func TestFetcher_CachesDocumentText(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("<p>cached content</p>"))
	}))
	defer server.Close()

	c := cache.NewMemoryCache(time.Minute, time.Minute)
	f := NewFetcher(testHTTPConfig(), c)
	url := server.URL + "/doc"

	for i := 0; i < 3; i++ {
		text, err := f.Fetch(context.Background(), url)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if text != "cached content" {
			t.Errorf("fetch %d: unexpected text %q", i, text)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected 1 origin hit with caching, got %d", got)
	}
}

func TestFetcher_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(testHTTPConfig(), nil)
	if _, err := f.Fetch(context.Background(), server.URL+"/doc"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFetcher_BodySizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(strings.Repeat("a", 10_000)))
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxBodyBytes = 100

	f := NewFetcher(cfg, nil)
	text, err := f.Fetch(context.Background(), server.URL+"/doc")
	if err != nil {
		t.Fatalf("expected truncated fetch, got %v", err)
	}
	if len(text) > 100 {
		t.Errorf("expected body capped at 100 bytes, got %d", len(text))
	}
}
