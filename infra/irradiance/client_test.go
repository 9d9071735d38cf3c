package irradiance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(url string) *Client {
	return NewClient(Config{Enabled: true, BaseURL: url, TimeoutSeconds: 2})
}

func TestAnnualGHI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("parameters"); got != "ALLSKY_SFC_SW_DWN" {
			t.Errorf("parameters query %q", got)
		}
		if got := r.URL.Query().Get("latitude"); got != "31.0000" {
			t.Errorf("latitude query %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"properties":{"parameter":{"ALLSKY_SFC_SW_DWN":{"JAN":3.1,"ANN":5.75}}}}`))
	}))
	defer srv.Close()

	ghi, err := newTestClient(srv.URL).AnnualGHI(context.Background(), 31, -100)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if ghi != 5.75 {
		t.Fatalf("ghi %v, want 5.75", ghi)
	}
}

func TestAnnualGHIMissingValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"properties":{"parameter":{"ALLSKY_SFC_SW_DWN":{"JAN":3.1}}}}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).AnnualGHI(context.Background(), 31, -100); err == nil {
		t.Fatalf("expected error for missing annual value")
	}
}

func TestAnnualGHIFillValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"properties":{"parameter":{"ALLSKY_SFC_SW_DWN":{"ANN":-999}}}}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).AnnualGHI(context.Background(), 31, -100); err == nil {
		t.Fatalf("expected error for fill value")
	}
}

func TestAnnualGHIStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).AnnualGHI(context.Background(), 31, -100); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestAnnualGHIMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).AnnualGHI(context.Background(), 31, -100); err == nil {
		t.Fatalf("expected error for malformed body")
	}
}

func TestAnnualGHITransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused

	if _, err := newTestClient(srv.URL).AnnualGHI(context.Background(), 31, -100); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.BaseURL != DefaultBaseURL {
		t.Fatalf("base url %s", cfg.BaseURL)
	}
	if cfg.TimeoutSeconds != 5 {
		t.Fatalf("timeout %d", cfg.TimeoutSeconds)
	}
}
