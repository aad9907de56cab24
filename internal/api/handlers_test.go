package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Praveenbabu5991/ContentStudio/internal/flow"
	"github.com/Praveenbabu5991/ContentStudio/internal/memory"
	"github.com/Praveenbabu5991/ContentStudio/internal/models"
	"github.com/Praveenbabu5991/ContentStudio/internal/policy"
	"github.com/Praveenbabu5991/ContentStudio/internal/session"
)

type serverFixture struct {
	server   *Server
	handler  http.Handler
	store    *memory.InMemoryStore
	sessions *session.Manager
}

func newTestServer(t *testing.T) *serverFixture {
	t.Helper()
	st := memory.NewInMemoryStore()
	sessions := session.NewManager()
	engine := flow.NewEngine(sessions, st, policy.NewRulePolicy(), flow.Capabilities{})
	srv := NewServer(engine, sessions, st, WithUploadDir(t.TempDir()))
	return &serverFixture{server: srv, handler: srv.Handler(), store: st, sessions: sessions}
}

func (f *serverFixture) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body == nil {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = bytes.NewBuffer(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func TestChatHandler_StartsSession(t *testing.T) {
	f := newTestServer(t)

	rr := f.do(t, http.MethodPost, "/chat", []byte(`{"user_id":"alice","message":"hi"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Status string          `json:"status"`
		Result flow.TurnResult `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field = %q", resp.Status)
	}
	if resp.Result.SessionID == "" {
		t.Error("expected a new session id")
	}
	if resp.Result.State != models.StateBrandSetup {
		t.Errorf("state = %s, want brand_setup", resp.Result.State)
	}
}

func TestChatHandler_InputErrors(t *testing.T) {
	f := newTestServer(t)

	if rr := f.do(t, http.MethodPost, "/chat", []byte(`{not json`)); rr.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d", rr.Code)
	}
	if rr := f.do(t, http.MethodPost, "/chat", []byte(`{"message":"hi"}`)); rr.Code != http.StatusBadRequest {
		t.Errorf("missing user status = %d", rr.Code)
	}
	rr := f.do(t, http.MethodPost, "/chat", []byte(`{"user_id":"alice","session_id":"ghost","message":"hi"}`))
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown session status = %d", rr.Code)
	}
	var errResp struct {
		Result models.CapabilityError `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Result.Category != models.ErrorCategoryNotFound {
		t.Errorf("error category = %q, want %q", errResp.Result.Category, models.ErrorCategoryNotFound)
	}
	if rr := f.do(t, http.MethodGet, "/chat", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", rr.Code)
	}
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	f := newTestServer(t)

	rr := f.do(t, http.MethodPost, "/sessions", []byte(`{"user_id":"alice"}`))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var created struct {
		Result models.SessionState `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	sid := created.Result.SessionID

	if rr := f.do(t, http.MethodGet, "/sessions/alice", nil); rr.Code != http.StatusOK ||
		!strings.Contains(rr.Body.String(), sid) {
		t.Errorf("list status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr := f.do(t, http.MethodGet, "/sessions/alice/"+sid, nil); rr.Code != http.StatusOK {
		t.Errorf("get status = %d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/sessions/mallory/"+sid, nil); rr.Code != http.StatusNotFound {
		t.Errorf("foreign get status = %d", rr.Code)
	}
	if rr := f.do(t, http.MethodDelete, "/sessions/mallory/"+sid, nil); rr.Code != http.StatusNotFound {
		t.Errorf("foreign delete status = %d", rr.Code)
	}
	if rr := f.do(t, http.MethodDelete, "/sessions/alice/"+sid, nil); rr.Code != http.StatusOK {
		t.Errorf("delete status = %d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/sessions/alice/"+sid, nil); rr.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rr.Code)
	}

	if rr := f.do(t, http.MethodPost, "/sessions", []byte(`{"user_id":""}`)); rr.Code != http.StatusBadRequest {
		t.Errorf("empty user create status = %d", rr.Code)
	}
}

// pngHeader is the magic-byte prefix content sniffing recognizes as image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func multipartUpload(t *testing.T, filename, intent string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	if intent != "" {
		if err := mw.WriteField("usage_intent", intent); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	f := newTestServer(t)

	body, contentType := multipartUpload(t, "logo.png", "logo_badge", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Result uploadResponse `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Result.UsageIntent != models.IntentLogoBadge {
		t.Errorf("intent = %s", resp.Result.UsageIntent)
	}
	if _, err := os.Stat(resp.Result.Path); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
}

func TestUploadHandler_RejectsNonImage(t *testing.T) {
	f := newTestServer(t)

	body, contentType := multipartUpload(t, "notes.txt", "", []byte("just some text"))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rr.Code)
	}
}

func TestUploadHandler_RejectsUnknownIntent(t *testing.T) {
	f := newTestServer(t)

	body, contentType := multipartUpload(t, "logo.png", "watermark", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestRecentContentHandler(t *testing.T) {
	f := newTestServer(t)
	for _, kind := range []string{memory.ContentKindImage, memory.ContentKindCaption} {
		if err := f.store.SaveGeneratedContent(memory.GeneratedContent{Kind: kind, Path: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	rr := f.do(t, http.MethodGet, "/content/recent?limit=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Result []memory.GeneratedContent `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Result) != 1 {
		t.Errorf("got %d items, want 1", len(resp.Result))
	}

	if rr := f.do(t, http.MethodGet, "/content/recent?limit=-2", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d", rr.Code)
	}
	if rr := f.do(t, http.MethodGet, "/content/recent?limit=0", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("zero limit status = %d", rr.Code)
	}
}

func TestRecentContentHandler_BoundedWithoutLimit(t *testing.T) {
	f := newTestServer(t)
	for i := 0; i < DefaultRecentContentLimit+5; i++ {
		if err := f.store.SaveGeneratedContent(memory.GeneratedContent{Kind: memory.ContentKindImage, Path: "x"}); err != nil {
			t.Fatal(err)
		}
	}

	rr := f.do(t, http.MethodGet, "/content/recent", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Result []memory.GeneratedContent `json:"result"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Result) != DefaultRecentContentLimit {
		t.Errorf("got %d items, want the default bound %d", len(resp.Result), DefaultRecentContentLimit)
	}

	rr = f.do(t, http.MethodGet, fmt.Sprintf("/content/recent?limit=%d", MaxRecentContentLimit+1), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("oversized limit status = %d", rr.Code)
	}
	resp.Result = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Result) != DefaultRecentContentLimit+5 {
		t.Errorf("got %d items, want all %d stored", len(resp.Result), DefaultRecentContentLimit+5)
	}
}

func TestHealthHandler(t *testing.T) {
	f := newTestServer(t)

	rr := f.do(t, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "healthy") {
		t.Errorf("body = %s", rr.Body.String())
	}
}
