package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ErrNoCSRFToken is returned when a page carries no csrf token.
var ErrNoCSRFToken = errors.New("no csrf token found")

// ExtractCSRF scans an HTML document for <meta name="csrf-token" content=...>
// or <input name="csrf_token" value=...>. The first match wins.
func ExtractCSRF(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var token string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				if attr(n, "name") == "csrf-token" {
					token = attr(n, "content")
				}
			case "input":
				if attr(n, "name") == "csrf_token" {
					token = attr(n, "value")
				}
			}
			if token != "" {
				return true
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if walk(child) {
				return true
			}
		}
		return false
	}
	if !walk(doc) {
		return "", ErrNoCSRFToken
	}
	return token, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// DiscoverCSRF loads page and adopts its csrf token. A token already set on
// the client is kept and returned unchanged.
func (c *Client) DiscoverCSRF(ctx context.Context, page string) (string, error) {
	if tok := c.CSRFToken(); tok != "" {
		return tok, nil
	}

	resp, err := c.get(ctx, "csrf", page)
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", newError("csrf", resp)
	}

	tok, err := ExtractCSRF(bytes.NewReader(resp.body))
	if err != nil {
		return "", err
	}
	c.SetCSRFToken(tok)
	c.logger.Debug("csrf token discovered", zap.String("page", page))
	return tok, nil
}
