package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

const maxFetchBytes = 10 << 20

var httpClient = &http.Client{Timeout: 30 * time.Second}

var blankLines = regexp.MustCompile(`\n{3,}`)

// skipElements are dropped entirely during text extraction: they never
// contain article prose.
var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "svg": true, "button": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"article": true, "section": true, "blockquote": true, "pre": true,
	"table": true, "ul": true, "ol": true,
}

// FromURL downloads a page and extracts its readable text and title.
func FromURL(ctx context.Context, rawURL string) (*Extraction, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid url %q", ErrNoContent, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "research-rag/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrNoContent, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrNoContent, rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, err
	}

	extraction, err := FromHTML(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, rawURL)
	}
	if extraction.Title == "" {
		extraction.Title = u.Host
	}
	return extraction, nil
}

// FromHTML extracts the readable text and title from an HTML document.
func FromHTML(r io.Reader) (*Extraction, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipElements[n.Data] {
				return
			}
			if n.Data == "title" && title == "" {
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
			if blockElements[n.Data] {
				text.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				text.WriteString(t)
				text.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			text.WriteString("\n")
		}
	}
	walk(doc)

	cleaned := strings.TrimSpace(blankLines.ReplaceAllString(text.String(), "\n\n"))
	if cleaned == "" {
		return nil, ErrNoContent
	}
	return &Extraction{Title: title, Text: cleaned}, nil
}

// extractMarkdown renders the file to HTML and strips it back down to plain
// text, so markdown syntax never leaks into chunks.
func extractMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return "", err
	}

	extraction, err := FromHTML(&buf)
	if err != nil {
		return "", err
	}
	return extraction.Text, nil
}
