// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown turns Markdown note bodies into the HTML the note editor
// stores, so notes written elsewhere can be imported as-is.
package markdown

import (
	"bytes"
	"fmt"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Format names accepted by Convert.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM, // tables, strikethrough, autolinks, task lists
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(), // a newline in a note is a line break
		html.WithUnsafe(),    // notes may already mix in editor HTML
	),
)

// ToHTML converts Markdown source into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Convert returns content as HTML. An empty format means HTML, which is
// returned unchanged.
func Convert(format, content string) (string, error) {
	switch format {
	case "", FormatHTML:
		return content, nil
	case FormatMarkdown:
		return ToHTML(content)
	default:
		return "", fmt.Errorf("unknown content format %q", format)
	}
}
