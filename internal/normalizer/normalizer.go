package normalizer

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Fetcher retrieves the raw bytes of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Normalizer turns fetched HTML into stable line-oriented text so that
// diffs reflect content changes rather than markup churn.
type Normalizer struct {
	fetcher Fetcher
	rules   Rules
	logger  zerolog.Logger
}

// NewNormalizer creates a normalizer using the given fetcher and rules
func NewNormalizer(fetcher Fetcher, rules Rules, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		fetcher: fetcher,
		rules:   rules,
		logger:  logger.With().Str("component", "Normalizer").Logger(),
	}
}

// Normalize fetches url and normalizes its HTML. Fetch failures are
// returned as *common.FetchError.
func (n *Normalizer) Normalize(ctx context.Context, url string) (string, error) {
	raw, err := n.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	text, err := n.NormalizeHTML(raw)
	if err != nil {
		return "", common.WrapErrorf(err, "normalize %s", url)
	}

	n.logger.Debug().
		Str("url", url).
		Int("raw_bytes", len(raw)).
		Int("normalized_bytes", len(text)).
		Msg("Page normalized")
	return text, nil
}

// NormalizeHTML is the pure part of Normalize.
func (n *Normalizer) NormalizeHTML(raw []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", common.WrapError(err, "failed to parse HTML")
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node == nil {
			return
		}
		if n.rules.removes(node.Data) {
			s.Remove()
			return
		}
		n.stripAttributes(node)
	})

	var buf strings.Builder
	for _, root := range doc.Nodes {
		n.render(&buf, root)
	}

	return collapseLines(buf.String()), nil
}

func (n *Normalizer) stripAttributes(node *html.Node) {
	kept := node.Attr[:0]
	for _, attr := range node.Attr {
		if n.rules.strips(strings.ToLower(attr.Key)) {
			continue
		}
		kept = append(kept, attr)
	}
	node.Attr = kept
}

// render writes a line break before each surviving open tag and after each
// surviving close tag.
func (n *Normalizer) render(buf *strings.Builder, node *html.Node) {
	switch node.Type {
	case html.DocumentNode:
		n.renderChildren(buf, node)
	case html.TextNode:
		buf.WriteString(html.EscapeString(node.Data))
	case html.ElementNode:
		if n.rules.removes(node.Data) {
			return
		}
		if n.rules.unwraps(node.Data) {
			n.renderChildren(buf, node)
			return
		}
		buf.WriteByte('\n')
		writeOpenTag(buf, node)
		if isVoidElement(node.Data) {
			buf.WriteByte('\n')
			return
		}
		n.renderChildren(buf, node)
		buf.WriteString("</")
		buf.WriteString(node.Data)
		buf.WriteString(">\n")
	}
	// Comments and doctypes carry nothing worth diffing.
}

func (n *Normalizer) renderChildren(buf *strings.Builder, node *html.Node) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		n.render(buf, child)
	}
}

func writeOpenTag(buf *strings.Builder, node *html.Node) {
	buf.WriteByte('<')
	buf.WriteString(node.Data)
	for _, attr := range node.Attr {
		buf.WriteByte(' ')
		if attr.Namespace != "" {
			buf.WriteString(attr.Namespace)
			buf.WriteByte(':')
		}
		buf.WriteString(attr.Key)
		buf.WriteString(`="`)
		buf.WriteString(html.EscapeString(attr.Val))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')
}

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func isVoidElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "source", "track", "wbr":
		return true
	}
	return false
}
