// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders assistant chat replies as HTML using goldmark.
// Replies are model output and therefore untrusted: raw HTML embedded in
// a reply is escaped, never passed through.
package markdown

import (
	"bytes"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,         // tables, strikethrough, autolinks
		extension.Typographer, // smart quotes and dashes
		highlighting.NewHighlighting( // fenced code blocks in replies
			highlighting.WithStyle("monokai"),
		),
	),
)

// ToHTML converts a Markdown reply into HTML for the chat view. The
// default goldmark renderer escapes any raw HTML in the source.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
