package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mvoltz/tether/pkg/snapstore"
)

const docJSON = `{
  "title": "scene",
  "assets": [{"name": "tex", "kind": "blob", "data": "AAEC"}],
  "nodes": [{"label": "a", "asset": "tex"}, {"label": "b", "asset": "tex"}]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(snapstore.NewMemoryStore(), nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func createSnapshot(t *testing.T, ts *httptest.Server, format string) snapstore.Info {
	t.Helper()
	body := `{"name": "scene", "format": "` + format + `", "document": ` + docJSON + `}`
	resp, err := http.Post(ts.URL+"/api/snapshots", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var info snapstore.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return info
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateAndGetSnapshot(t *testing.T) {
	ts := newTestServer(t)
	info := createSnapshot(t, ts, "binary")

	if info.Name != "scene" || info.Format != "binary" || info.ID == "" {
		t.Errorf("created Info = %+v", info)
	}

	resp, err := http.Get(ts.URL + "/api/snapshots/" + info.ID)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", resp.StatusCode)
	}
	var snap snapstore.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.ID != info.ID || len(snap.Data) == 0 {
		t.Errorf("snapshot = %+v, want payload for %s", snap, info.ID)
	}
}

func TestSnapshotDocumentRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	info := createSnapshot(t, ts, "text")

	resp, err := http.Get(ts.URL + "/api/snapshots/" + info.ID + "/document")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", resp.StatusCode)
	}
	var doc struct {
		Title string `json:"title"`
		Nodes []struct {
			Label string `json:"label"`
			Asset string `json:"asset"`
		} `json:"nodes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Title != "scene" || len(doc.Nodes) != 2 {
		t.Errorf("document = %+v", doc)
	}
	if doc.Nodes[0].Asset != "tex" || doc.Nodes[1].Asset != "tex" {
		t.Error("alias references lost in round trip")
	}
}

func TestListSnapshots(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/snapshots")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	var empty []snapstore.Info
	if err := json.NewDecoder(resp.Body).Decode(&empty); err != nil {
		t.Fatalf("decode empty listing: %v", err)
	}
	resp.Body.Close()
	if len(empty) != 0 {
		t.Errorf("empty store listed %d snapshots", len(empty))
	}

	createSnapshot(t, ts, "binary")
	resp, err = http.Get(ts.URL + "/api/snapshots")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	var infos []snapstore.Info
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("listed %d snapshots, want 1", len(infos))
	}
}

func TestDeleteSnapshot(t *testing.T) {
	ts := newTestServer(t)
	info := createSnapshot(t, ts, "binary")

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/snapshots/"+info.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/snapshots/" + info.ID)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestGetUnknownSnapshot(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/snapshots/nope")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var e struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if e.Code != "SNAPSHOT_NOT_FOUND" {
		t.Errorf("error code = %q, want SNAPSHOT_NOT_FOUND", e.Code)
	}
}

func TestCreateRejectsBadDocument(t *testing.T) {
	ts := newTestServer(t)
	body := `{"name": "bad", "format": "binary", "document": {"assets": [], "nodes": [{"label": "a", "asset": "ghost"}]}}`
	resp, err := http.Post(ts.URL+"/api/snapshots", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateRejectsBadFormat(t *testing.T) {
	ts := newTestServer(t)
	body := `{"name": "bad", "format": "yaml", "document": ` + docJSON + `}`
	resp, err := http.Post(ts.URL+"/api/snapshots", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestVerify(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/verify?format=binary", "application/json", strings.NewReader(docJSON))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var report struct {
		IdentityPreserved bool `json:"identity_preserved"`
		Bound             int  `json:"bound"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.IdentityPreserved || report.Bound != 2 {
		t.Errorf("report = %+v, want preserved with 2 bound", report)
	}
}
