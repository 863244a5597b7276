// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts post bodies from Markdown to sanitised HTML and
// derives plain-text excerpts.
package markdown

import (
	"bytes"
	"html"
	"strings"
	"unicode/utf8"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			// Class-based output: the UGC policy drops inline styles.
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		// Raw HTML passes through goldmark and is then filtered by the UGC policy.
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)

	ugc   = newUGCPolicy()
	strip = bluemonday.StrictPolicy()
)

func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").Matching(bluemonday.SpaceSeparatedTokens).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("pre", "code", "span")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// ToHTML renders Markdown source into HTML safe to embed in a page.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return ugc.Sanitize(buf.String()), nil
}

// PlainText renders source and strips every tag, leaving readable text
// with collapsed whitespace.
func PlainText(source string) string {
	rendered, err := ToHTML(source)
	if err != nil {
		rendered = source
	}
	text := html.UnescapeString(strip.Sanitize(rendered))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns at most max runes of the plain text of source, cut at a
// word boundary and suffixed with an ellipsis when shortened.
func Excerpt(source string, max int) string {
	text := PlainText(source)
	if utf8.RuneCountInString(text) <= max {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:max-1])
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
