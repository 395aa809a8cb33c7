package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/irscope/pkg/diagnostics"
	"github.com/matzehuels/irscope/pkg/errors"
	"github.com/matzehuels/irscope/pkg/observability"
	"github.com/matzehuels/irscope/pkg/pipeline"
	"github.com/matzehuels/irscope/pkg/render/mermaid"
)

const kotlinMain = "fun main() { var x = 5 }"

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	ts := httptest.NewServer(New(opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestIsAlive(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := http.Get(ts.URL + "/api/isalive")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
	_, err = uuid.Parse(resp.Header.Get(requestIDHeader))
	assert.NoError(t, err, "response carries a request id")
}

func TestKotlinToMermaid(t *testing.T) {
	ts := newTestServer(t, Options{})

	tests := []struct {
		name        string
		query       string
		wantOffsets bool
	}{
		{"default", "", false},
		{"disabled", "?withOffsetComment=false", false},
		{"enabled", "?withOffsetComment=true", true},
		{"enabled mixed case", "?withOffsetComment=tRuE", true},
		{"unrecognized value", "?withOffsetComment=maybe", false},
		{"numeric value", "?withOffsetComment=1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/api/kotlinToMermaid"+tt.query, kotlinMain)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			out := decode[pipeline.Response](t, resp)
			require.NotNil(t, out.MermaidGraph)
			assert.True(t, strings.HasPrefix(*out.MermaidGraph, mermaid.HeaderFlowchart))
			assert.Contains(t, *out.MermaidGraph, "FUN main")
			assert.Equal(t, tt.wantOffsets, strings.Contains(*out.MermaidGraph, mermaid.OffsetDelimiter))
			assert.NotNil(t, out.Messages)
		})
	}
}

func TestAnalysisFailureIsNotAnError(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := post(t, ts.URL+"/api/kotlinToMermaid", "fun main( {")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"mermaidGraph":null`)

	var out pipeline.Response
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotEmpty(t, out.Messages)
	assert.Equal(t, "error", out.Messages[0].Severity)
	assert.NotNil(t, out.Messages[0].Location)
}

func TestInvalidUTF8IsAnalyzed(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := post(t, ts.URL+"/api/kotlinToMermaid", "fun \xff()")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"mermaidGraph":null`)

	var out pipeline.Response
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "error", out.Messages[0].Severity)
	assert.Contains(t, out.Messages[0].Message, "not valid UTF-8")
	require.NotNil(t, out.Messages[0].Location)
	assert.Equal(t, diagnostics.Location{Line: 1, Column: 5}, *out.Messages[0].Location)
}

func TestNoiseIsFiltered(t *testing.T) {
	runner := pipeline.NewRunner(diagnostics.NewMapper(), []string{"/not/a/real/root.jar"}, log.New(io.Discard))
	ts := newTestServer(t, Options{Runner: runner})

	resp := post(t, ts.URL+"/api/kotlinToMermaid", kotlinMain)
	out := decode[pipeline.Response](t, resp)
	for _, m := range out.Messages {
		assert.NotContains(t, m.Message, diagnostics.NoiseMissingLibraryRoot)
	}
}

func TestConvertLanguages(t *testing.T) {
	ts := newTestServer(t, Options{Language: "go"})

	t.Run("default language", func(t *testing.T) {
		resp := post(t, ts.URL+"/api/convert", "package main\nfunc add(a, b int) int { return a + b }\n")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		out := decode[pipeline.Response](t, resp)
		require.NotNil(t, out.MermaidGraph)
		assert.Contains(t, *out.MermaidGraph, "FUN add")
	})

	t.Run("explicit language", func(t *testing.T) {
		resp := post(t, ts.URL+"/api/convert?lang=kotlin", kotlinMain)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		out := decode[pipeline.Response](t, resp)
		require.NotNil(t, out.MermaidGraph)
		assert.Contains(t, *out.MermaidGraph, "FUN main")
	})

	t.Run("class diagram", func(t *testing.T) {
		resp := post(t, ts.URL+"/api/convert?lang=kotlin&format=class", "class A { fun f() {} }")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		out := decode[pipeline.Response](t, resp)
		require.NotNil(t, out.MermaidGraph)
		assert.True(t, strings.HasPrefix(*out.MermaidGraph, mermaid.HeaderClassDiagram))
	})
}

func TestConvertErrors(t *testing.T) {
	ts := newTestServer(t, Options{MaxBodyBytes: 64})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown language", "/api/convert?lang=cobol", kotlinMain, http.StatusBadRequest, errors.ErrCodeInvalidLanguage},
		{"binary format", "/api/convert?format=svg", kotlinMain, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"too large", "/api/kotlinToMermaid", strings.Repeat("x", 65), http.StatusRequestEntityTooLarge, errors.ErrCodeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[errorBody](t, resp)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := http.Get(ts.URL + "/api/kotlinToMermaid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	ts := newTestServer(t, Options{})
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/kotlinToMermaid", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsReused(t *testing.T) {
	ts := newTestServer(t, Options{})
	id := uuid.NewString()
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/isalive", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, id)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(requestIDHeader))
}

type recordingServerHooks struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (h *recordingServerHooks) OnServe(_ context.Context, _, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, route)
	h.status = append(h.status, status)
}

func TestServeHooks(t *testing.T) {
	hooks := &recordingServerHooks{}
	observability.SetServerHooks(hooks)
	defer observability.Reset()

	ts := newTestServer(t, Options{})
	resp, err := http.Get(ts.URL + "/api/isalive")
	require.NoError(t, err)
	resp.Body.Close()

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	assert.Equal(t, []string{"/api/isalive"}, hooks.routes)
	assert.Equal(t, []int{http.StatusOK}, hooks.status)
}

func TestConcurrentRequests(t *testing.T) {
	ts := newTestServer(t, Options{})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/api/kotlinToMermaid?withOffsetComment=true", "text/plain", strings.NewReader(kotlinMain))
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			var out pipeline.Response
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				errs <- err
				return
			}
			if out.MermaidGraph == nil {
				errs <- assert.AnError
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestListenAndServeShutsDown(t *testing.T) {
	s := New(Options{Addr: "127.0.0.1:0", Logger: log.New(io.Discard)})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
