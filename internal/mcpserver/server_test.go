package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hversson/atrium/internal/models"
	"github.com/hversson/atrium/internal/upstream"
)

func testServer(t *testing.T) (*Server, *string) {
	t.Helper()

	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /skill", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(upstream.Envelope{
			Success: true,
			Data:    json.RawMessage(`[{"_id":"s1","name":"Go"}]`),
		})
	})
	mux.HandleFunc("GET /blog/missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(upstream.Envelope{Success: false, Message: "Blog not found"})
	})
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	client := upstream.NewClient(backend.URL, upstream.NewTagCache())
	return New(client, "service-token"), &gotAuth
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListSkillsUsesServiceToken(t *testing.T) {
	srv, gotAuth := testServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Name = "list_skills"
	r, err := srv.listTool(upstream.Skill, decodeList[models.Skill])(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"name": "Go"`) {
		t.Errorf("result = %q", resultText(r))
	}
	if *gotAuth != "Bearer service-token" {
		t.Errorf("Authorization = %q", *gotAuth)
	}
}

func TestGetBlogMissingIsToolError(t *testing.T) {
	srv, _ := testServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_blog"
	req.Params.Arguments = map[string]interface{}{"id": "missing"}
	r, err := srv.getTool(upstream.Blog, decodeOne[models.BlogPost])(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsError {
		t.Fatal("expected tool error for missing blog")
	}
	if !strings.Contains(resultText(r), "Blog not found") {
		t.Errorf("error text = %q", resultText(r))
	}
}

func TestGetBlogRequiresID(t *testing.T) {
	srv, _ := testServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_blog"
	r, err := srv.getTool(upstream.Blog, decodeOne[models.BlogPost])(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !r.IsError {
		t.Error("expected error when id argument is absent")
	}
}
