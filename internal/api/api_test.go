package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/starford/linkfinder/internal/checksum"
	"github.com/starford/linkfinder/internal/linkservice"
	"github.com/starford/linkfinder/internal/models"
	"github.com/starford/linkfinder/internal/storage"
	"github.com/starford/linkfinder/internal/testutil"
)

var testVault = map[string]string{
	"Roadmap.md": "---\ntags: [planning]\n---\n# Project Kickoff\nGoals ^q3-goals\n",
	"journal.md": "Meet the Project Kickoff team\n",
}

var kickoffID = models.EntryID{Kind: models.KindHeading, SourcePath: "Roadmap.md", Target: "Project Kickoff"}

// testEnv sets up a seeded vault, index, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*storage.FS, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*storage.FS, http.Handler) {
	t.Helper()
	store, b := testutil.TestBuilder(t, testVault)
	svc := linkservice.NewService(store, b)
	return store, NewRouter(svc, authEnabled, token, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestQueryEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/query?q=kickoff", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Matches) == 0 || resp.Matches[0].ID() != kickoffID {
		t.Errorf("matches = %+v", resp.Matches)
	}
}

func TestQueryMissingParam(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/query", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("query without q = %d, want 400", w.Code)
	}
}

func TestQueryMsgpack(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/query?q=planning", nil, "Accept", "application/msgpack")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeMsgpack {
		t.Fatalf("content type = %q", ct)
	}
	var resp map[string]any
	if err := msgpack.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["query"] != "planning" {
		t.Errorf("query field = %v", resp["query"])
	}
	matches, _ := resp["matches"].([]any)
	if len(matches) == 0 {
		t.Fatal("no matches decoded")
	}
	first, _ := matches[0].(map[string]any)
	if first["kind"] != "tag" || first["display_text"] != "#planning" {
		t.Errorf("first match = %v", first)
	}
}

func TestResolveEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/resolve", ResolveRequest{Line: "Meet the Project Kickoff team", Cursor: 20})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ResolveResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Found || resp.Span == nil || resp.Span.Text != "Project Kickoff" {
		t.Errorf("resolve = %+v", resp)
	}

	w = do(t, router, http.MethodPost, "/resolve", ResolveRequest{Line: "a   b", Cursor: 3})
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || resp.Found {
		t.Errorf("cursor between words = %d %+v, want not found", w.Code, resp)
	}
}

func TestResolveValidation(t *testing.T) {
	_, router := testEnv(t, "")

	for name, body := range map[string]any{
		"empty line":      ResolveRequest{Cursor: 1},
		"negative cursor": ResolveRequest{Line: "x", Cursor: -1},
		"not json":        "{",
	} {
		w := do(t, router, http.MethodPost, "/resolve", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, w.Code)
		}
	}
}

func TestSuggestEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/suggest", ResolveRequest{Line: "see 2025-06-07 and Roadmap", Cursor: 22})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SuggestResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Found || resp.Span.Text != "2025-06-07" {
		t.Errorf("date should pre-empt: %+v", resp)
	}
	if resp.Matches == nil {
		t.Error("matches should be an empty list, not null")
	}
}

func TestLinkEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/link", LinkRequest{Entry: kickoffID, Label: "the kickoff"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp LinkResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Link != "[[Roadmap#Project Kickoff|the kickoff]]" {
		t.Errorf("link = %q", resp.Link)
	}

	unknown := kickoffID
	unknown.Target = "Nope"
	if w := do(t, router, http.MethodPost, "/link", LinkRequest{Entry: unknown}); w.Code != http.StatusNotFound {
		t.Errorf("unknown entry = %d, want 404", w.Code)
	}

	bad := kickoffID
	bad.Kind = "chapter"
	if w := do(t, router, http.MethodPost, "/link", LinkRequest{Entry: bad}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid kind = %d, want 400", w.Code)
	}
}

func TestApplyLinkWithOptimisticLocking(t *testing.T) {
	store, router := testEnv(t, "")
	body := ApplyLinkRequest{Line: 1, Start: 9, End: 24, Entry: kickoffID}

	w := do(t, router, http.MethodPost, "/documents/journal.md", body, "If-Match", `"stale"`)
	if w.Code != http.StatusConflict {
		t.Errorf("stale If-Match = %d, want 409", w.Code)
	}

	data, _ := store.Read("journal.md")
	w = do(t, router, http.MethodPost, "/documents/journal.md", body, "If-Match", `"`+checksum.Sum(data)+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("apply = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ApplyLinkResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)

	after, _ := store.Read("journal.md")
	want := "Meet the [[Roadmap#Project Kickoff|Project Kickoff]] team\n"
	if string(after) != want {
		t.Errorf("document = %q, want %q", after, want)
	}
	if w.Header().Get("ETag") != `"`+checksum.Sum(after)+`"` || resp.Checksum != checksum.Sum(after) {
		t.Error("response should carry the new checksum")
	}
}

func TestApplyLinkErrors(t *testing.T) {
	_, router := testEnv(t, "")

	cases := []struct {
		name   string
		target string
		body   ApplyLinkRequest
		want   int
	}{
		{"missing document", "/documents/ghost.md", ApplyLinkRequest{Line: 1, End: 2, Entry: kickoffID}, http.StatusNotFound},
		{"span out of range", "/documents/journal.md", ApplyLinkRequest{Line: 1, Start: 5, End: 500, Entry: kickoffID}, http.StatusBadRequest},
		{"end before start", "/documents/journal.md", ApplyLinkRequest{Line: 1, Start: 5, End: 3, Entry: kickoffID}, http.StatusBadRequest},
		{"line zero", "/documents/journal.md", ApplyLinkRequest{End: 3, Entry: kickoffID}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := do(t, router, http.MethodPost, tc.target, tc.body)
		if w.Code != tc.want {
			t.Errorf("%s: status = %d, want %d (%s)", tc.name, w.Code, tc.want, w.Body.String())
		}
	}
}

func TestRebuildEndpoint(t *testing.T) {
	store, router := testEnv(t, "")
	_ = store.Write("fresh.md", []byte("# Fresh Ideas\n"))

	w := do(t, router, http.MethodPost, "/rebuild", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rebuild = %d", w.Code)
	}
	var resp RebuildResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Started || resp.Stats.Documents != 3 {
		t.Errorf("rebuild = %+v", resp)
	}

	w = do(t, router, http.MethodGet, "/query?q=fresh%20ideas", nil)
	var q QueryResponse
	_ = json.Unmarshal(w.Body.Bytes(), &q)
	if len(q.Matches) == 0 {
		t.Error("rebuilt index should contain the new document")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	w := do(t, router, http.MethodGet, "/stats", nil, "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	w := do(t, router, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	w := do(t, router, http.MethodGet, "/stats", nil, "Authorization", "Bearer wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// sseStub writes headers and blocks until the request context is done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", sseStub)

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
