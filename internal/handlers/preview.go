// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// previewLen is the number of characters kept in a note preview.
const previewLen = 150

// notePreview returns a plain-text summary of a note's HTML body: the text
// of the first <div> that has any, otherwise all of the body's text,
// trimmed and cut to previewLen characters followed by "...".
func notePreview(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}

	text := ""
	if div := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Div &&
			strings.TrimSpace(textContent(n)) != ""
	}); div != nil {
		text = strings.TrimSpace(textContent(div))
	} else if body := findNode(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	}); body != nil {
		text = strings.TrimSpace(textContent(body))
	}

	runes := []rune(text)
	if len(runes) > previewLen {
		return string(runes[:previewLen]) + "..."
	}
	return text
}

// findNode returns the first node in document order that matches.
func findNode(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

// textContent concatenates every text node under n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
