package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestClient_SendsBearerToken(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /items": `{"total":0,"items":[]}`,
	})

	resp, err := ts.client().get(ctx, "/items?limit=5&offset=0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}
	if r.Path != "/items?limit=5&offset=0" {
		t.Errorf("path = %q", r.Path)
	}
}

func TestClient_ProgressDecodes(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /progress": `{"reviewer":"alice","total":10,"reviewed":4,"percent":40,"complete":false}`,
	})

	resp, err := ts.client().get(ctx, "/progress?reviewer=alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var progress struct {
		Reviewer string `json:"reviewer"`
		Reviewed int    `json:"reviewed"`
		Percent  int    `json:"percent"`
	}
	if err := decodeJSON(resp, &progress); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if progress.Reviewer != "alice" || progress.Reviewed != 4 || progress.Percent != 40 {
		t.Errorf("progress = %+v", progress)
	}
}

func TestClient_CreateSessionPostsBody(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /sessions": `{"session_id":"s-1","state":{"index":0,"total":3}}`,
	})

	resp, err := ts.client().post(ctx, "/sessions", map[string]string{"reviewer": "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	r := ts.requests[0]
	if r.Method != "POST" {
		t.Errorf("method = %q, want POST", r.Method)
	}
	if !strings.Contains(r.Body, `"reviewer":"bob"`) {
		t.Errorf("body = %q, want reviewer bob", r.Body)
	}
}

func TestDecodeJSON_ErrorStatus(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.client().get(ctx, "/nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var v any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want mention of 404", err)
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	want := []string{"serve", "stop", "mcp", "review", "status", "items", "progress", "export"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("rootCmd missing %q subcommand", name)
		}
	}
}
