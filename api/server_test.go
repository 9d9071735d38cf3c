package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kilianp07/gridpulse/core/model"
	"github.com/kilianp07/gridpulse/core/optimizer"
	"github.com/kilianp07/gridpulse/core/profile"
	"github.com/kilianp07/gridpulse/core/region"
	"github.com/kilianp07/gridpulse/core/session"
)

func newTestServer(t *testing.T) (*httptest.Server, *session.Controller) {
	t.Helper()
	catalog, err := region.NewCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ctrl := session.NewController(catalog, profile.NewBuilder(nil, nil), nil,
		optimizer.NewFallback(nil), time.Second, nil, nil, nil)
	srv := httptest.NewServer(NewHandler(catalog, ctrl).Router(nil))
	t.Cleanup(srv.Close)
	return srv, ctrl
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestListRegions(t *testing.T) {
	srv, _ := newTestServer(t)
	var regions []model.Region
	if code := getJSON(t, srv.URL+"/api/regions", &regions); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(regions) != 5 {
		t.Fatalf("expected 5 regions, got %d", len(regions))
	}
}

func TestSnapshotsBeforeFirstCycle(t *testing.T) {
	srv, _ := newTestServer(t)
	if code := getJSON(t, srv.URL+"/api/profile", nil); code != http.StatusNotFound {
		t.Fatalf("profile status %d, want 404", code)
	}
	if code := getJSON(t, srv.URL+"/api/result", nil); code != http.StatusNotFound {
		t.Fatalf("result status %d, want 404", code)
	}
	var status struct {
		Region string `json:"region"`
		Status string `json:"status"`
	}
	if code := getJSON(t, srv.URL+"/api/status", &status); code != http.StatusOK {
		t.Fatalf("status endpoint %d", code)
	}
	if status.Region != "" || status.Status != "checking" {
		t.Fatalf("unexpected initial status %+v", status)
	}
}

func TestSelectRegionCompletesCycle(t *testing.T) {
	srv, ctrl := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/regions/texas/select", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status %d, want 202", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Result() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("cycle did not complete")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var result model.OptimizationResult
	if code := getJSON(t, srv.URL+"/api/result", &result); code != http.StatusOK {
		t.Fatalf("result status %d", code)
	}
	if result.RegionID != "texas" || result.UsingRealBackend {
		t.Fatalf("unexpected result %s real=%v", result.RegionID, result.UsingRealBackend)
	}
	if len(result.Schedule) != 24 {
		t.Fatalf("schedule length %d", len(result.Schedule))
	}

	var prof model.EnergyProfile
	if code := getJSON(t, srv.URL+"/api/profile", &prof); code != http.StatusOK {
		t.Fatalf("profile status %d", code)
	}
	if prof.Region.ID != "texas" || len(prof.Hourly) != 24 {
		t.Fatalf("unexpected profile %s len=%d", prof.Region.ID, len(prof.Hourly))
	}
}

func TestSelectUnknownRegion(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/regions/atlantis/select", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}

func TestRetryBeforeSelection(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/retry", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status %d, want 409", resp.StatusCode)
	}
}

func TestRetryAfterSelection(t *testing.T) {
	srv, ctrl := newTestServer(t)
	if _, err := ctrl.SelectRegion(context.Background(), "florida"); err != nil {
		t.Fatalf("select: %v", err)
	}
	first := ctrl.Result().ID

	resp, err := http.Post(srv.URL+"/api/retry", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status %d, want 202", resp.StatusCode)
	}

	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Result().ID == first {
		if time.Now().After(deadline) {
			t.Fatalf("retry did not produce a new plan")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if ctrl.Result().RegionID != "florida" {
		t.Fatalf("retry changed region to %s", ctrl.Result().RegionID)
	}
}
