package extractor

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NormalizeText collapses every whitespace run, NBSP included, to a single
// space and trims the ends.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// visibleLines walks the subtree and returns up to limit non-empty lines of
// rendered text. Block elements and <br> end a line. limit <= 0 means no limit.
func visibleLines(root *html.Node, limit int) []string {
	var lines []string
	var cur strings.Builder

	flush := func() {
		if line := NormalizeText(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}
	full := func() bool { return limit > 0 && len(lines) >= limit }

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if full() {
			return
		}
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.CommentNode, html.DoctypeNode:
			return
		case html.ElementNode:
			if isHidden(n.DataAtom) {
				return
			}
			if n.DataAtom == atom.Br {
				flush()
				return
			}
		}

		block := n.Type == html.ElementNode && isBlock(n.DataAtom)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}

	walk(root)
	if !full() {
		flush()
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}
	return lines
}

// nodeText is the normalized visible text of a subtree, with block
// boundaries rendered as spaces.
func nodeText(n *html.Node) string {
	return strings.Join(visibleLines(n, 0), " ")
}

func isHidden(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head, atom.Svg, atom.Iframe:
		return true
	}
	return false
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.Address, atom.Article, atom.Aside, atom.Blockquote, atom.Body,
		atom.Dd, atom.Details, atom.Div, atom.Dl, atom.Dt, atom.Fieldset,
		atom.Figcaption, atom.Figure, atom.Footer, atom.Form, atom.H1, atom.H2,
		atom.H3, atom.H4, atom.H5, atom.H6, atom.Header, atom.Hr, atom.Li,
		atom.Main, atom.Nav, atom.Ol, atom.P, atom.Pre, atom.Section,
		atom.Summary, atom.Table, atom.Tr, atom.Td, atom.Th, atom.Ul,
		atom.Html, atom.Button, atom.Option:
		return true
	}
	return false
}
