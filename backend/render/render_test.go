package render

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeJSONString_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		`quote " and backslash \ together`,
		"line one\nline two\r\n\ttabbed",
		"\b\f",
		"ctrl \x00 \x01 \x1f \x7f",
		"C:\\Users\\someone\\notes.md",
		"unicode: àèìòù – 日本語 – 😀",
		"# Title\n\n```go\nfmt.Println(\"hi\\n\")\n```\n",
	}

	for _, in := range inputs {
		escaped := EscapeJSONString(in)
		var out string
		require.NoError(t, json.Unmarshal([]byte(escaped), &out), "escaped: %s", escaped)
		assert.Equal(t, in, out)
	}
}

func TestEscapeJSONString_AllControlCharacters(t *testing.T) {
	var b strings.Builder
	for r := rune(0); r < 0x20; r++ {
		b.WriteRune(r)
	}
	in := b.String()

	escaped := EscapeJSONString(in)
	for i := 1; i < len(escaped)-1; i++ {
		assert.GreaterOrEqual(t, escaped[i], byte(0x20), "raw control byte at %d", i)
	}

	var out string
	require.NoError(t, json.Unmarshal([]byte(escaped), &out))
	assert.Equal(t, in, out)
}

func TestEscapeJSONString_Forms(t *testing.T) {
	assert.Equal(t, `"\\"`, EscapeJSONString(`\`))
	assert.Equal(t, `"\""`, EscapeJSONString(`"`))
	assert.Equal(t, `"\n\r\t\b\f"`, EscapeJSONString("\n\r\t\b\f"))
	assert.Equal(t, `"\u0001\u001f"`, EscapeJSONString("\x01\x1f"))
	assert.Equal(t, `"日本"`, EscapeJSONString("日本"))
}

func TestRequestBody(t *testing.T) {
	body := requestBody("a \"b\"\n", "gfm")

	var payload struct {
		Text string `json:"text"`
		Mode string `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "a \"b\"\n", payload.Text)
	assert.Equal(t, "gfm", payload.Mode)
}

func TestClient_Render_Success(t *testing.T) {
	var got struct {
		Text string `json:"text"`
		Mode string `json:"mode"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.Empty(t, r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte("<p>hi</p>"))
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL})
	html, err := client.Render(context.Background(), "hi \\ \"there\"")

	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", html)
	assert.Equal(t, "hi \\ \"there\"", got.Text)
	assert.Equal(t, "gfm", got.Mode)
}

func TestClient_Render_Token(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte("<p>ok</p>"))
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL, Token: "secret"})
	_, err := client.Render(context.Background(), "ok")
	require.NoError(t, err)
}

func TestClient_Render_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL})
	_, err := client.Render(context.Background(), "# doc")

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindServer, rerr.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, rerr.StatusCode)
	assert.Contains(t, rerr.Message, "maintenance")
	assert.True(t, rerr.Unreachable())
}

func TestClient_Render_Connectivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(Options{Endpoint: url})
	_, err := client.Render(context.Background(), "# doc")

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindConnectivity, rerr.Kind)
	assert.Contains(t, rerr.Message, "request failed")
}

func TestClient_Render_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Options{Endpoint: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Render(context.Background(), "# slow")

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindConnectivity, rerr.Kind)
	assert.Equal(t, "request timed out", rerr.Message)
}

func TestClient_Render_CacheHit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			http.Error(w, "rate limited", http.StatusForbidden)
			return
		}
		w.Write([]byte("<h1>cached</h1>"))
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL, CacheTTL: time.Minute})
	ctx := context.Background()

	first, err := client.Render(ctx, "# cached")
	require.NoError(t, err)
	second, err := client.Render(ctx, "# cached")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())

	// different text misses the cache and surfaces the server failure
	_, err = client.Render(ctx, "# other")
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Render_FailuresNotCached(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		w.Write([]byte("<p>second try</p>"))
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL, CacheTTL: time.Minute})
	_, err := client.Render(context.Background(), "text")
	require.Error(t, err)

	html, err := client.Render(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "<p>second try</p>", html)
}

func TestOutline(t *testing.T) {
	fragment := `<div class="markdown-heading"><h1 class="heading-element">Intro</h1><a id="user-content-intro" class="anchor" href="#intro"></a></div>
<p>text</p>
<h2><a id="user-content-setup" class="anchor" href="#setup"></a>Setup   steps</h2>
<h3 id="details">Details</h3>
<h4></h4>`

	headings, err := Outline(fragment)
	require.NoError(t, err)
	require.Len(t, headings, 3)

	assert.Equal(t, Heading{Level: 1, Text: "Intro", ID: "user-content-intro"}, headings[0])
	assert.Equal(t, Heading{Level: 2, Text: "Setup steps", ID: "user-content-setup"}, headings[1])
	assert.Equal(t, Heading{Level: 3, Text: "Details", ID: "details"}, headings[2])
}

func TestClient_Render_Live(t *testing.T) {
	_ = godotenv.Load()
	if os.Getenv("MDVIEWER_LIVE") == "" {
		t.Skip("MDVIEWER_LIVE environment variable required")
	}

	client := NewClient(Options{Token: os.Getenv("GITHUB_TOKEN")})
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	html, err := client.Render(ctx, "# Hello\n\n*world* with `code`")
	require.NoError(t, err)
	assert.Contains(t, html, "<em>world</em>")
	assert.Contains(t, html, "<code>code</code>")
	t.Logf("rendered: %s", html)
}
