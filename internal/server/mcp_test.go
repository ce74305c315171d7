package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bsns-mcp/bsnsmcp-go/internal/summarize"
)

const testArticleHTML = `<!DOCTYPE html>
<html>
<head><title>Merger Talks Resume</title></head>
<body>
<article>
<h1>Merger Talks Resume</h1>
<p>Two of the largest logistics companies in the region resumed merger talks this week after a six month pause. The combined entity would control roughly a third of regional freight volume.</p>
<p>Regulators signalled they would review any deal closely, citing concentration concerns in port services. Both boards are expected to vote before the end of the quarter.</p>
<p>Shares of both firms rose on the news while competitors fell. Analysts called the revived talks a sign of consolidation pressure across the sector.</p>
</article>
</body>
</html>`

func summarizeRequest(url string) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = summarizeToolName
	req.Params.Arguments = map[string]any{"url": url}
	return req
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return tc.Text
}

func TestHandleSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, testArticleHTML)
	}))
	defer srv.Close()

	s := New(summarize.New(summarize.Options{Logger: zaptest.NewLogger(t)}), zaptest.NewLogger(t))

	result, err := s.handleSummarize(context.Background(), summarizeRequest(srv.URL+"/article"))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := textContent(t, result)
	assert.Contains(t, text, "Business Article Summary:\n\n")
	assert.Greater(t, len(text), len("Business Article Summary:\n\n"))
}

func TestHandleSummarizeFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(summarize.New(summarize.Options{Logger: zaptest.NewLogger(t)}), zaptest.NewLogger(t))

	result, err := s.handleSummarize(context.Background(), summarizeRequest(srv.URL+"/article"))
	require.NoError(t, err, "fetch failures surface as tool text, not protocol errors")

	text := textContent(t, result)
	assert.Contains(t, text, "Error summarizing article:")
}

func TestHandleSummarizeMissingURL(t *testing.T) {
	s := New(summarize.New(summarize.Options{Logger: zaptest.NewLogger(t)}), zaptest.NewLogger(t))

	req := mcp.CallToolRequest{}
	req.Params.Name = summarizeToolName
	req.Params.Arguments = map[string]any{}

	result, err := s.handleSummarize(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
