package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"loopsleuth/internal/api"
	"loopsleuth/internal/catalog"
	"loopsleuth/internal/logging"
	"loopsleuth/internal/review"
	"loopsleuth/internal/scanner"
	"loopsleuth/internal/testsupport"
)

const fp = "00000000000000000000000000000000000000000000000000000000000000ff"

type fakeScans struct {
	progress scanner.Progress
	busy     bool
	requests []scanner.Request
}

func (f *fakeScans) IngestAsync(_ context.Context, req scanner.Request) (<-chan scanner.Result, error) {
	if f.busy {
		return nil, scanner.ErrLockConflict
	}
	f.requests = append(f.requests, req)
	done := make(chan scanner.Result, 1)
	done <- scanner.Result{Status: scanner.StatusComplete}
	return done, nil
}

func (f *fakeScans) Progress() scanner.Progress {
	return f.progress
}

type fixture struct {
	handler   http.Handler
	scans     *fakeScans
	store     *catalog.Store
	canonical *catalog.Clip
	duplicate *catalog.Clip
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	canonical := testsupport.NewClip(t, store, "/clips/a.mp4", fp)
	duplicate := testsupport.NewClip(t, store, "/clips/b.mp4", fp)
	if err := store.SetDuplicate(context.Background(), duplicate.ID, canonical.ID); err != nil {
		t.Fatalf("SetDuplicate: %v", err)
	}
	scans := &fakeScans{progress: scanner.Progress{Status: scanner.StatusScanning, Total: 4, Done: 1, ScanID: 7}}
	srv := api.NewServer("127.0.0.1:0", scans, store, review.NewResolver(store, logging.NewNop()), logging.NewNop())
	return fixture{handler: srv.Handler(), scans: scans, store: store, canonical: canonical, duplicate: duplicate}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestProgressEndpoint(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/progress", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[api.Progress](t, rec)
	if got.Status != "scanning" || got.Total != 4 || got.Done != 1 || got.ScanID != 7 {
		t.Fatalf("unexpected progress: %+v", got)
	}
}

func TestStartScan(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/scans", `{"folder":"/videos","forceRescan":true}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.scans.requests) != 1 || f.scans.requests[0].Root != "/videos" || !f.scans.requests[0].ForceRescan {
		t.Fatalf("unexpected scan requests: %+v", f.scans.requests)
	}

	if rec := f.do(t, http.MethodPost, "/api/scans", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing folder should be rejected, got %d", rec.Code)
	}

	f.scans.busy = true
	if rec := f.do(t, http.MethodPost, "/api/scans", `{"folder":"/videos"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while a scan runs, got %d", rec.Code)
	}
}

func TestListClipsAndDuplicates(t *testing.T) {
	f := newFixture(t)

	clips := decode[api.ClipListResponse](t, f.do(t, http.MethodGet, "/api/clips", ""))
	if len(clips.Clips) != 2 || clips.Clips[0].Filename != "a.mp4" {
		t.Fatalf("unexpected clips: %+v", clips)
	}

	groups := decode[api.DuplicateListResponse](t, f.do(t, http.MethodGet, "/api/duplicates", ""))
	if len(groups.Groups) != 1 {
		t.Fatalf("expected one duplicate group, got %+v", groups)
	}
	group := groups.Groups[0]
	if group.Canonical.ID != f.canonical.ID || len(group.Duplicates) != 1 || group.Duplicates[0].ID != f.duplicate.ID {
		t.Fatalf("unexpected group: %+v", group)
	}
	if group.Duplicates[0].Fingerprint != fp {
		t.Fatalf("duplicate fingerprint missing: %+v", group.Duplicates[0])
	}
}

func TestResolveEndpoint(t *testing.T) {
	f := newFixture(t)
	path := "/api/duplicates/" + itoa(f.duplicate.ID) + "/resolve"

	if rec := f.do(t, http.MethodPost, path, `{"action":"explode"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown action should be 400, got %d", rec.Code)
	}
	self := `{"action":"merge","canonicalId":` + itoa(f.duplicate.ID) + `}`
	if rec := f.do(t, http.MethodPost, path, self); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("self merge should be 422, got %d", rec.Code)
	}

	rec := f.do(t, http.MethodPost, path, `{"action":"keep"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[api.ResolveResponse](t, rec)
	if got.State != string(review.StateResolved) {
		t.Fatalf("unexpected state: %+v", got)
	}
	clip := testsupport.MustGetClip(t, f.store, f.duplicate.ID)
	if clip.NeedsReview || clip.DuplicateOf != nil {
		t.Fatalf("keep not applied: %+v", clip)
	}

	if rec := f.do(t, http.MethodPost, "/api/duplicates/abc/resolve", `{"action":"keep"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id should be 400, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	if rec := f.do(t, http.MethodGet, "/api/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
