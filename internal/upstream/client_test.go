package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hversson/atrium/internal/apperr"
	"github.com/hversson/atrium/internal/session"
)

func authedCtx() context.Context {
	return session.WithToken(context.Background(), "tok-123")
}

func TestListAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: json.RawMessage(`[]`)})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewTagCache())
	if _, err := c.List(authedCtx(), Skill); err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
}

func TestMissingTokenFailsClosed(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewTagCache())
	_, err := c.List(context.Background(), Skill)
	if !errors.Is(err, apperr.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	if called {
		t.Error("request must not be sent without a credential")
	}
}

func TestBusinessFailureIsEnvelopeNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(Envelope{Success: false, Message: "slug already taken"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewTagCache())
	env, err := c.Create(authedCtx(), Blog, map[string]any{"title": "x"}, nil)
	if err != nil {
		t.Fatalf("business failure must not be a Go error: %v", err)
	}
	if env.Success || env.Message != "slug already taken" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestNetworkFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, NewTagCache())
	if _, err := c.List(authedCtx(), Skill); err == nil {
		t.Fatal("want error on transport failure")
	}
}

func TestNonJSONBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>gateway timeout</html>")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewTagCache())
	if _, err := c.List(authedCtx(), Skill); err == nil {
		t.Fatal("want error for non-JSON body")
	}
}

func TestMutationInvalidatesTag(t *testing.T) {
	listCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listCalls++
			_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: json.RawMessage(`[]`)})
		case http.MethodPost:
			_ = json.NewEncoder(w).Encode(Envelope{Success: true, Message: "Skill added"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewTagCache())
	ctx := authedCtx()

	// Two reads, one backend hit.
	if _, err := c.List(ctx, Skill); err != nil {
		t.Fatal(err)
	}
	if _, err := c.List(ctx, Skill); err != nil {
		t.Fatal(err)
	}
	if listCalls != 1 {
		t.Fatalf("backend list calls = %d, want 1 (second read cached)", listCalls)
	}

	// Mutation invalidates the tag; next read refetches.
	if _, err := c.Create(ctx, Skill, map[string]any{"name": "Go"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.List(ctx, Skill); err != nil {
		t.Fatal(err)
	}
	if listCalls != 2 {
		t.Errorf("backend list calls = %d, want 2 after invalidation", listCalls)
	}
}

func TestMutationRefreshesDashboard(t *testing.T) {
	blogs := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/dashboard-info":
			_ = json.NewEncoder(w).Encode(Envelope{
				Success: true,
				Data:    json.RawMessage(fmt.Sprintf(`{"blogs":%d}`, blogs)),
			})
		case r.Method == http.MethodPost && r.URL.Path == "/blog":
			blogs++
			_ = json.NewEncoder(w).Encode(Envelope{Success: true, Message: "Blog added"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewTagCache())
	ctx := authedCtx()

	env, err := c.List(ctx, Dashboard)
	if err != nil {
		t.Fatal(err)
	}
	if string(env.Data) != `{"blogs":0}` {
		t.Fatalf("initial dashboard = %s", env.Data)
	}

	// A mutation on any collection must drop the cached summary too.
	if _, err := c.Create(ctx, Blog, map[string]any{"title": "x"}, nil); err != nil {
		t.Fatal(err)
	}
	env, err = c.List(ctx, Dashboard)
	if err != nil {
		t.Fatal(err)
	}
	if string(env.Data) != `{"blogs":1}` {
		t.Errorf("dashboard after mutation = %s, want {\"blogs\":1}", env.Data)
	}
}

func TestCreateSendsDataAndFileParts(t *testing.T) {
	var dataPart string
	var fileNames []string
	var fileBodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		dataPart = r.FormValue("data")
		if r.MultipartForm != nil {
			for _, fh := range r.MultipartForm.File["file"] {
				fileNames = append(fileNames, fh.Filename)
				f, _ := fh.Open()
				b, _ := io.ReadAll(f)
				f.Close()
				fileBodies = append(fileBodies, string(b))
			}
		}
		_ = json.NewEncoder(w).Encode(Envelope{Success: true, Message: "Skill added"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewTagCache())
	files := []File{{Name: "icon.png", ContentType: "image/png", Data: []byte("png-bytes")}}
	env, err := c.Create(authedCtx(), Skill, map[string]any{"name": "TypeScript", "category": "technical"}, files)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !env.Success || env.Message != "Skill added" {
		t.Errorf("envelope = %+v", env)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(dataPart), &decoded); err != nil {
		t.Fatalf("data part is not JSON: %q", dataPart)
	}
	if decoded["name"] != "TypeScript" || decoded["category"] != "technical" {
		t.Errorf("data part = %v", decoded)
	}
	if len(fileNames) != 1 || fileNames[0] != "icon.png" || fileBodies[0] != "png-bytes" {
		t.Errorf("file parts = %v %v", fileNames, fileBodies)
	}
}

func TestLoginCarriesNoToken(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_ = json.NewEncoder(w).Encode(Envelope{
			Success: true,
			Message: "Login successful",
			Data:    json.RawMessage(`{"accessToken":"jwt-here"}`),
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewTagCache())
	env, err := c.Login(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("login must not send Authorization, got %q", gotAuth)
	}
	if !strings.Contains(gotBody, "ada@example.com") {
		t.Errorf("body = %q", gotBody)
	}
	if !env.Success {
		t.Errorf("envelope = %+v", env)
	}
}

func TestTagCacheIsolatesTags(t *testing.T) {
	cache := NewTagCache()
	cache.Set("BLOG", "/blog", &Envelope{Success: true})
	cache.Set("SKILL", "/skill", &Envelope{Success: true})

	cache.Invalidate("BLOG")

	if _, ok := cache.Get("BLOG", "/blog"); ok {
		t.Error("BLOG entry survived invalidation")
	}
	if _, ok := cache.Get("SKILL", "/skill"); !ok {
		t.Error("SKILL entry dropped by unrelated invalidation")
	}
}
