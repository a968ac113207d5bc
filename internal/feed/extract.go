package feed

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/resilientops/watchdog/internal/models"
)

const (
	// maxAnchors bounds the regex scan over anchor tags.
	maxAnchors = 4000
	// maxExtracted caps the entries returned per page.
	maxExtracted = 80
	// minLabelLen discards anchors whose visible text is too short to be
	// a headline. Counted in runes.
	minLabelLen = 12
)

var anchorRe = regexp.MustCompile(`(?is)<a\b[^>]*href=["']([^"']+)["'][^>]*>(.*?)</a>`)

// allowRules suppress navigation noise on sites without a working feed:
// for a matching host only hrefs carrying the marker survive.
var allowRules = []struct {
	hostMark string
	hrefMark string
}{
	// berlin.de press releases are consistently "pressemitteilung.<id>.php".
	{hostMark: "berlin.de", hrefMark: "pressemitteilung."},
}

// ExtractLinks pulls press-release-like anchors out of an HTML page. It is
// the fallback path for sources that expose no working feed. Only absolute
// or root-relative hrefs are accepted; relative ones are resolved against
// the source URL. The uid is the resolved href.
func ExtractLinks(data []byte, source, baseURL string) []models.Entry {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	matches := anchorRe.FindAllStringSubmatch(string(data), maxAnchors)
	var out []models.Entry
	for _, m := range matches {
		href := strings.TrimSpace(m[1])
		if href == "" || strings.HasPrefix(href, "#") {
			continue
		}
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") && !strings.HasPrefix(href, "/") {
			continue
		}
		if strings.HasPrefix(href, "/") && base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		if !allowedHref(base, href) {
			continue
		}

		title := anchorText(m[2])
		if utf8.RuneCountInString(title) < minLabelLen {
			continue
		}

		out = append(out, models.Entry{
			Source: source,
			Title:  title,
			Link:   href,
			UID:    href,
		})
		if len(out) >= maxExtracted {
			break
		}
	}
	return out
}

func allowedHref(base *url.URL, href string) bool {
	if base == nil {
		return true
	}
	for _, rule := range allowRules {
		if strings.Contains(base.Host, rule.hostMark) && !strings.Contains(href, rule.hrefMark) {
			return false
		}
	}
	return true
}

// anchorText strips markup from an anchor label and collapses whitespace.
func anchorText(label string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(label), ctx)
	if err != nil {
		return strings.Join(strings.Fields(label), " ")
	}
	var b strings.Builder
	for _, n := range nodes {
		collectText(n, &b)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
