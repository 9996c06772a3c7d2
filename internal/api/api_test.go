package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/offcuts/internal/auth/token"
	"github.com/starford/offcuts/internal/backup"
	"github.com/starford/offcuts/internal/graph"
	"github.com/starford/offcuts/internal/marketservice"
	"github.com/starford/offcuts/internal/models"
	"github.com/starford/offcuts/internal/temporal"
	"github.com/starford/offcuts/internal/testutil"
)

type env struct {
	router   http.Handler
	tokens   *token.Manager
	photoDir string
}

// testEnv sets up a temp graph, photo dir, service, and router.
// withAuth enables JWT enforcement.
func testEnv(t *testing.T, withAuth bool) *env {
	t.Helper()
	db := testutil.TestGraph(t)
	photoDir, photos := testutil.TestPhotos(t)

	var tm *token.Manager
	opts := []marketservice.Option{}
	if withAuth {
		tm = token.New("api-test-secret", "offcuts-test", time.Hour)
		opts = append(opts, marketservice.WithTokens(tm))
	}
	svc := marketservice.New(db, backup.New(db, temporal.New(graph.IsTemporalKey), nil), opts...)

	// Minimal SSE handler stub: writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	router := NewRouter(svc, NewAuthenticator(tm), photos, sseHandler)
	return &env{router: router, tokens: tm, photoDir: photoDir}
}

func (e *env) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) token(t *testing.T, login, role string) string {
	t.Helper()
	raw, _, err := e.tokens.Issue(login, role)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return raw
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

var aliceReq = map[string]any{
	"login": "alice", "password": "s3cret", "role": "master", "full_name": "Alice Carpenter", "age": 41,
}

var bobReq = map[string]any{
	"login": "bob", "password": "hunter2", "role": "buyer", "full_name": "Bob Builder", "age": 30,
}

var oakReq = map[string]any{
	"login": "alice", "name": "Oak offcuts", "width": 10, "height": 5, "length": 5,
	"weight": 2, "amount": 50, "price": 1.5, "address": "Plant 3",
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, want, w.Body.String())
	}
}

func TestCreateAndGetUser(t *testing.T) {
	e := testEnv(t, false)

	w := e.do(t, http.MethodPost, "/users", aliceReq, "")
	mustStatus(t, w, http.StatusCreated)
	created := decode[models.User](t, w)
	if created.Login != "alice" || created.Status != models.StatusActive {
		t.Errorf("created = %+v", created)
	}
	if strings.Contains(w.Body.String(), "s3cret") || strings.Contains(w.Body.String(), "password") {
		t.Errorf("password leaked: %s", w.Body.String())
	}

	// Trailing slash is accepted.
	w = e.do(t, http.MethodGet, "/users/alice/", nil, "")
	mustStatus(t, w, http.StatusOK)
	if got := decode[models.User](t, w); got.FullName != "Alice Carpenter" {
		t.Errorf("full_name = %q", got.FullName)
	}

	w = e.do(t, http.MethodGet, "/users/nobody", nil, "")
	mustStatus(t, w, http.StatusNotFound)
}

func TestCreateUser_DuplicateAndInvalid(t *testing.T) {
	e := testEnv(t, false)
	mustStatus(t, e.do(t, http.MethodPost, "/users", aliceReq, ""), http.StatusCreated)
	mustStatus(t, e.do(t, http.MethodPost, "/users", aliceReq, ""), http.StatusConflict)

	bad := map[string]any{"login": "carol", "password": "x", "role": "pirate", "full_name": "Carol"}
	mustStatus(t, e.do(t, http.MethodPost, "/users", bad, ""), http.StatusBadRequest)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	mustStatus(t, w, http.StatusBadRequest)
}

func TestEditUserAndStatus(t *testing.T) {
	e := testEnv(t, false)
	mustStatus(t, e.do(t, http.MethodPost, "/users", aliceReq, ""), http.StatusCreated)

	profile := map[string]any{"full_name": "Alice C.", "age": 42, "description": "joiner", "education": "", "photo_url": "a.png"}
	w := e.do(t, http.MethodPatch, "/users/alice", profile, "")
	mustStatus(t, w, http.StatusOK)
	if got := decode[models.User](t, w); got.FullName != "Alice C." || got.Role != models.RoleMaster {
		t.Errorf("edited = %+v", got)
	}
	mustStatus(t, e.do(t, http.MethodPatch, "/users/ghost", profile, ""), http.StatusNotFound)

	w = e.do(t, http.MethodPatch, "/users/alice/status", map[string]string{"status": "blocked"}, "")
	mustStatus(t, w, http.StatusOK)
	if got := decode[models.User](t, w); got.Status != models.StatusBlocked {
		t.Errorf("status = %q", got.Status)
	}
	mustStatus(t, e.do(t, http.MethodPatch, "/users/alice/status", map[string]string{"status": "asleep"}, ""), http.StatusBadRequest)
}

func TestAnnouncementsFlow(t *testing.T) {
	e := testEnv(t, false)
	mustStatus(t, e.do(t, http.MethodPost, "/users", aliceReq, ""), http.StatusCreated)

	w := e.do(t, http.MethodPost, "/announcements", oakReq, "")
	mustStatus(t, w, http.StatusCreated)
	if a := decode[models.Announcement](t, w); a.Number != 1 || a.Master != "alice" {
		t.Errorf("created = %+v", a)
	}

	w = e.do(t, http.MethodGet, "/announcements?price_min=1.0", nil, "")
	mustStatus(t, w, http.StatusOK)
	if list := decode[[]models.Announcement](t, w); len(list) != 1 {
		t.Errorf("price_min=1.0 returned %d", len(list))
	}
	w = e.do(t, http.MethodGet, "/announcements/?price_min=2.0", nil, "")
	mustStatus(t, w, http.StatusOK)
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("price_min=2.0 body = %s, want []", body)
	}
	w = e.do(t, http.MethodGet, "/announcements?price_max=0&master=carp", nil, "")
	mustStatus(t, w, http.StatusOK)
	if list := decode[[]models.Announcement](t, w); len(list) != 1 {
		t.Errorf("price_max=0 should be unbounded, got %d", len(list))
	}
	mustStatus(t, e.do(t, http.MethodGet, "/announcements?width_min=wide", nil, ""), http.StatusBadRequest)

	mustStatus(t, e.do(t, http.MethodGet, "/announcements/alice/1", nil, ""), http.StatusOK)
	mustStatus(t, e.do(t, http.MethodGet, "/announcements/alice/one", nil, ""), http.StatusBadRequest)

	edit := map[string]any{"name": "Oak offcuts", "price": 3}
	w = e.do(t, http.MethodPatch, "/announcements/alice/1", edit, "")
	mustStatus(t, w, http.StatusOK)
	if a := decode[models.Announcement](t, w); a.Price != 3 {
		t.Errorf("price = %v", a.Price)
	}

	mustStatus(t, e.do(t, http.MethodDelete, "/announcements/alice/1", nil, ""), http.StatusNoContent)
	mustStatus(t, e.do(t, http.MethodGet, "/announcements/alice/1", nil, ""), http.StatusNotFound)

	unknown := map[string]any{"login": "ghost", "name": "Pine"}
	mustStatus(t, e.do(t, http.MethodPost, "/announcements", unknown, ""), http.StatusNotFound)
}

func TestUserFeedbackFlow(t *testing.T) {
	e := testEnv(t, false)
	mustStatus(t, e.do(t, http.MethodPost, "/users", aliceReq, ""), http.StatusCreated)
	mustStatus(t, e.do(t, http.MethodPost, "/users", bobReq, ""), http.StatusCreated)

	review := map[string]any{"sender_login": "bob", "text": "Great seller", "estimation": 5}
	mustStatus(t, e.do(t, http.MethodPost, "/users/alice/comments/", review, ""), http.StatusCreated)

	w := e.do(t, http.MethodGet, "/users/alice/comments", nil, "")
	mustStatus(t, w, http.StatusOK)
	list := decode[[]models.UserFeedback](t, w)
	if len(list) != 1 || list[0] != (models.UserFeedback{Author: "bob", Text: "Great seller", Estimation: 5}) {
		t.Fatalf("feedback = %+v", list)
	}

	mustStatus(t, e.do(t, http.MethodDelete, "/users/alice/comments/bob", nil, ""), http.StatusNoContent)
	w = e.do(t, http.MethodGet, "/users/alice/comments", nil, "")
	mustStatus(t, w, http.StatusOK)
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("after delete body = %s", body)
	}
	mustStatus(t, e.do(t, http.MethodGet, "/users/ghost/comments", nil, ""), http.StatusNotFound)
}

func TestAnnouncementFeedbackFlow(t *testing.T) {
	e := testEnv(t, false)
	mustStatus(t, e.do(t, http.MethodPost, "/users", aliceReq, ""), http.StatusCreated)
	mustStatus(t, e.do(t, http.MethodPost, "/users", bobReq, ""), http.StatusCreated)
	mustStatus(t, e.do(t, http.MethodPost, "/announcements", oakReq, ""), http.StatusCreated)

	comment := map[string]any{"sender_login": "bob", "text": "Still available?"}
	mustStatus(t, e.do(t, http.MethodPost, "/announcements/alice/1/comments", comment, ""), http.StatusCreated)
	mustStatus(t, e.do(t, http.MethodPost, "/announcements/alice/9/comments", comment, ""), http.StatusNotFound)

	w := e.do(t, http.MethodGet, "/announcements/alice/1/comments", nil, "")
	mustStatus(t, w, http.StatusOK)
	if list := decode[[]models.AnnouncementFeedback](t, w); len(list) != 1 || list[0].Author != "bob" {
		t.Fatalf("comments = %+v", list)
	}

	mustStatus(t, e.do(t, http.MethodDelete, "/announcements/alice/1/comments/bob", nil, ""), http.StatusNoContent)
	mustStatus(t, e.do(t, http.MethodDelete, "/announcements/alice/1/comments/bob", nil, ""), http.StatusNotFound)
}

func TestLogin(t *testing.T) {
	e := testEnv(t, true)
	mustStatus(t, e.do(t, http.MethodPost, "/users", aliceReq, ""), http.StatusCreated)

	w := e.do(t, http.MethodPost, "/login", map[string]string{"login": "alice", "password": "s3cret"}, "")
	mustStatus(t, w, http.StatusOK)
	sess := decode[LoginResponse](t, w)
	if sess.Role != models.RoleMaster || sess.Token == "" {
		t.Fatalf("session = %+v", sess)
	}
	cl, err := e.tokens.Parse(sess.Token)
	if err != nil || cl.Login != "alice" {
		t.Fatalf("token claims = %+v, %v", cl, err)
	}

	mustStatus(t, e.do(t, http.MethodPost, "/login", map[string]string{"login": "alice", "password": "nope"}, ""), http.StatusUnauthorized)
	mustStatus(t, e.do(t, http.MethodPost, "/login", map[string]string{"login": "alice"}, ""), http.StatusBadRequest)

	admin := e.token(t, "root", models.RoleAdmin)
	mustStatus(t, e.do(t, http.MethodPatch, "/users/alice/status", map[string]string{"status": "blocked"}, admin), http.StatusOK)
	mustStatus(t, e.do(t, http.MethodPost, "/login", map[string]string{"login": "alice", "password": "s3cret"}, ""), http.StatusForbidden)
}

func TestAuth_Ownership(t *testing.T) {
	e := testEnv(t, true)
	mustStatus(t, e.do(t, http.MethodPost, "/users", aliceReq, ""), http.StatusCreated)
	mustStatus(t, e.do(t, http.MethodPost, "/users", bobReq, ""), http.StatusCreated)
	alice := e.token(t, "alice", models.RoleMaster)
	bob := e.token(t, "bob", models.RoleBuyer)
	admin := e.token(t, "root", models.RoleAdmin)

	// Reads stay public.
	mustStatus(t, e.do(t, http.MethodGet, "/users/alice", nil, ""), http.StatusOK)

	// Mutations need a token, and it must belong to the subject.
	mustStatus(t, e.do(t, http.MethodPost, "/announcements", oakReq, ""), http.StatusUnauthorized)
	mustStatus(t, e.do(t, http.MethodPost, "/announcements", oakReq, bob), http.StatusForbidden)
	mustStatus(t, e.do(t, http.MethodPost, "/announcements", oakReq, alice), http.StatusCreated)
	mustStatus(t, e.do(t, http.MethodDelete, "/announcements/alice/1", nil, bob), http.StatusForbidden)

	review := map[string]any{"sender_login": "alice", "text": "forged", "estimation": 1}
	mustStatus(t, e.do(t, http.MethodPost, "/users/bob/comments", review, bob), http.StatusForbidden)

	// Admin-only routes.
	mustStatus(t, e.do(t, http.MethodDelete, "/users/bob", nil, bob), http.StatusForbidden)
	mustStatus(t, e.do(t, http.MethodGet, "/backup", nil, alice), http.StatusForbidden)
	mustStatus(t, e.do(t, http.MethodDelete, "/users/bob", nil, admin), http.StatusNoContent)

	// Only admins can register admins.
	root := map[string]any{"login": "root2", "password": "x", "role": "admin", "full_name": "Root"}
	mustStatus(t, e.do(t, http.MethodPost, "/users", root, ""), http.StatusForbidden)
	mustStatus(t, e.do(t, http.MethodPost, "/users", root, admin), http.StatusCreated)

	// A malformed token is rejected even on public routes.
	mustStatus(t, e.do(t, http.MethodGet, "/users/alice", nil, "garbage"), http.StatusUnauthorized)
}

func TestBackupExportImport(t *testing.T) {
	e := testEnv(t, false)
	mustStatus(t, e.do(t, http.MethodPost, "/users", aliceReq, ""), http.StatusCreated)
	mustStatus(t, e.do(t, http.MethodPost, "/announcements", oakReq, ""), http.StatusCreated)

	w := e.do(t, http.MethodGet, "/backup/", nil, "")
	mustStatus(t, w, http.StatusOK)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	doc := decode[backup.Document](t, w)
	if len(doc.Nodes) != 2 || len(doc.Relationships) != 1 || doc.Relationships[0].Type != graph.RelAuthored {
		t.Fatalf("doc = %+v", doc)
	}

	req := httptest.NewRequest(http.MethodGet, "/backup", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	mustStatus(t, w, http.StatusNotModified)

	mustStatus(t, e.do(t, http.MethodDelete, "/users/alice", nil, ""), http.StatusNoContent)
	w = e.do(t, http.MethodPost, "/backup", map[string]any{"backup_data": doc}, "")
	mustStatus(t, w, http.StatusCreated)
	if rep := decode[backup.Report](t, w); rep.NodesCreated != 2 || rep.RelationshipsCreated != 1 {
		t.Errorf("report = %+v", rep)
	}
	mustStatus(t, e.do(t, http.MethodGet, "/announcements/alice/1", nil, ""), http.StatusOK)

	mustStatus(t, e.do(t, http.MethodPost, "/backup", map[string]any{}, ""), http.StatusBadRequest)
	corrupt := map[string]any{"backup_data": map[string]any{
		"nodes":         []any{},
		"relationships": []any{map[string]any{"id": 1, "type": "Create", "start_node": 1, "end_node": 2, "properties": map[string]any{}}},
	}}
	mustStatus(t, e.do(t, http.MethodPost, "/backup", corrupt, ""), http.StatusBadRequest)
	// The failed import left the graph untouched.
	mustStatus(t, e.do(t, http.MethodGet, "/users/alice", nil, ""), http.StatusOK)
}

func uploadFile(t *testing.T, e *env, filename string, content []byte, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func TestUploadAndServePhoto(t *testing.T) {
	e := testEnv(t, false)

	w := uploadFile(t, e, "../../escape.png", pngBytes, "")
	mustStatus(t, w, http.StatusCreated)
	resp := decode[PhotoUploadResponse](t, w)
	if !strings.HasSuffix(resp.Name, ".png") || resp.URL != "/api/photos/"+resp.Name {
		t.Fatalf("upload response = %+v", resp)
	}

	// The client filename is ignored; the photo lands inside the photo dir.
	data, err := os.ReadFile(filepath.Join(e.photoDir, resp.Name))
	if err != nil {
		t.Fatalf("photo not on disk: %v", err)
	}
	if !bytes.Equal(data, pngBytes) {
		t.Error("content mismatch")
	}

	w = e.do(t, http.MethodGet, "/photos/"+resp.Name, nil, "")
	mustStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), pngBytes) {
		t.Error("served content mismatch")
	}

	mustStatus(t, e.do(t, http.MethodGet, "/photos/missing.png", nil, ""), http.StatusNotFound)
}

func TestUploadPhoto_Rejected(t *testing.T) {
	e := testEnv(t, false)
	mustStatus(t, uploadFile(t, e, "doc.png", []byte("%PDF-1.4 not an image"), ""), http.StatusBadRequest)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	mustStatus(t, w, http.StatusBadRequest)
}

func TestUploadPhoto_AuthProtected(t *testing.T) {
	e := testEnv(t, true)
	mustStatus(t, uploadFile(t, e, "x.png", pngBytes, ""), http.StatusUnauthorized)
	mustStatus(t, uploadFile(t, e, "x.png", pngBytes, e.token(t, "alice", models.RoleMaster)), http.StatusCreated)
}

func TestSSEEvents_Public(t *testing.T) {
	e := testEnv(t, true)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE status = %d, want 200", w.Code)
	}
}
