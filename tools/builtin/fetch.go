// Package builtin provides a ready-made Toolkit entry, Fetch, that
// exercises network I/O and HTML processing, for callers assembling a
// starter toolkit rather than registering everything from scratch.
package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/voocel/mas/schema"
	"github.com/voocel/mas/tools"
)

// Fetch fetches a URL and converts its body to text, markdown, or raw
// HTML. It is not marked Concurrent: outbound requests share the
// tool's http.Client connection pool and the loop's per-turn error
// budget is easier to reason about when network tools run one at a time.
type Fetch struct {
	client      *http.Client
	maxBodySize int64
}

// NewFetch builds a fetch tool with the given response-size cap
// (bytes). A non-positive maxBodySize defaults to 5MB.
func NewFetch(maxBodySize int64) *Fetch {
	if maxBodySize <= 0 {
		maxBodySize = 5 * 1024 * 1024
	}
	return &Fetch{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxBodySize: maxBodySize,
	}
}

func (f *Fetch) Name() string        { return "fetch" }
func (f *Fetch) Description() string { return "Fetch and process content from a URL with format conversion." }
func (f *Fetch) Group() string       { return "web" }
func (f *Fetch) Concurrent() bool    { return false }

func (f *Fetch) Schema() map[string]any {
	return schema.Object(
		schema.Property("url", schema.String("The URL to fetch content from")).Required(),
		schema.Property("format", schema.Enum("Output format", "text", "markdown", "html")).Required(),
		schema.Property("timeout", schema.Int("Optional timeout in seconds (max 120, default 30)")),
	)
}

func (f *Fetch) Invoke(ctx context.Context, call schema.ToolUse) (<-chan schema.ToolResult, error) {
	ch := make(chan schema.ToolResult, 1)
	go func() {
		defer close(ch)
		ch <- f.run(ctx, call)
	}()
	return ch, nil
}

func (f *Fetch) run(ctx context.Context, call schema.ToolUse) schema.ToolResult {
	url, _ := call.Input["url"].(string)
	format := strings.ToLower(fmt.Sprint(call.Input["format"]))

	if url == "" {
		return schema.ErrorToolResult(call.ID, call.Name, "url parameter is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return schema.ErrorToolResult(call.ID, call.Name, "url must start with http:// or https://")
	}
	if format != "text" && format != "markdown" && format != "html" {
		return schema.ErrorToolResult(call.ID, call.Name, "format must be one of: text, markdown, html")
	}

	reqCtx := ctx
	if timeout, ok := call.Input["timeout"].(float64); ok && timeout > 0 {
		if timeout > 120 {
			timeout = 120
		}
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return schema.ErrorToolResult(call.ID, call.Name, fmt.Sprintf("creating request: %v", err))
	}
	httpReq.Header.Set("User-Agent", "mas-fetch/1.0")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return schema.ErrorToolResult(call.ID, call.Name, fmt.Sprintf("fetching url: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return schema.ErrorToolResult(call.ID, call.Name, fmt.Sprintf("request failed with status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return schema.ErrorToolResult(call.ID, call.Name, fmt.Sprintf("reading body: %v", err))
	}
	content := string(body)
	if !utf8.ValidString(content) {
		return schema.ErrorToolResult(call.ID, call.Name, "response content is not valid utf-8")
	}

	isHTML := strings.Contains(resp.Header.Get("Content-Type"), "text/html")
	switch format {
	case "text":
		if isHTML {
			if text, err := extractText(content); err == nil {
				content = text
			}
		}
	case "markdown":
		if isHTML {
			if markdown, err := convertMarkdown(content); err == nil {
				content = markdown
			}
		}
	case "html":
		if isHTML {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
			if err != nil {
				return schema.ErrorToolResult(call.ID, call.Name, fmt.Sprintf("parsing html: %v", err))
			}
			bodyHTML, _ := doc.Find("body").Html()
			content = "<html>\n<body>\n" + bodyHTML + "\n</body>\n</html>"
		}
	}

	truncated := false
	if int64(len(content)) > f.maxBodySize {
		content = content[:f.maxBodySize]
		content += fmt.Sprintf("\n\n[content truncated to %d bytes]", f.maxBodySize)
		truncated = true
	}

	text := content
	if truncated {
		text += "\n(truncated)"
	}
	return schema.ToolResult{ID: call.ID, Name: call.Name, Output: []schema.ContentBlock{schema.TextBlock(text)}}
}

func extractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}

func convertMarkdown(html string) (string, error) {
	return md.NewConverter("", true, nil).ConvertString(html)
}

var _ tools.Tool = (*Fetch)(nil)
