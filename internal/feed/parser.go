package feed

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"github.com/resilientops/watchdog/internal/models"
)

const (
	// noTitle stands in for items that carry no usable title.
	noTitle = "(no title)"

	// maxFallbackItems bounds how many <item> blocks the regex tier scans.
	maxFallbackItems = 200
)

// ParseError is returned when every parser tier failed to extract entries.
type ParseError struct {
	Source string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: all parser tiers exhausted", e.Source)
}

// parseStrategy is one tier of the tolerant parser. Tiers are tried in
// order until one succeeds; an error means "inapplicable, try the next".
type parseStrategy interface {
	name() string
	parse(text, source string) ([]models.Entry, error)
}

var strategies = []parseStrategy{
	feedStrategy{},
	regexStrategy{},
}

// ParseFeed extracts entries from a feed document. The payload is sanitized
// and entity-repaired once, then handed to each parser tier in turn. Output
// preserves document order; every entry has a non-empty title and, whenever
// any identifying field exists, a non-empty uid.
func ParseFeed(data []byte, source string) ([]models.Entry, error) {
	text := repairEntities(stripControlChars(string(data)))

	for _, s := range strategies {
		entries, err := s.parse(text, source)
		if err == nil {
			return entries, nil
		}
		logrus.Debugf("parser tier %s failed for %s: %v", s.name(), source, err)
	}
	return nil, &ParseError{Source: source}
}

// stripControlChars removes control characters except tab, CR and LF. Some
// feeds embed raw control bytes that break XML parsing outright.
func stripControlChars(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' || r >= 0x20 {
			return r
		}
		return -1
	}, text)
}

var (
	namedEntityRe = regexp.MustCompile(`&([A-Za-z][A-Za-z0-9]+);`)
	// Matches every ampersand, optionally consuming a trailing valid
	// entity reference. A bare match means the ampersand needs escaping.
	bareAmpRe = regexp.MustCompile(`&(?:#[0-9]+;|#[xX][0-9A-Fa-f]+;|[A-Za-z][A-Za-z0-9]+;)?`)
)

// xmlEntities are the five predefined XML entities that strict parsers
// accept as-is.
var xmlEntities = map[string]bool{
	"amp": true, "lt": true, "gt": true, "apos": true, "quot": true,
}

// repairEntities converts HTML named entities (e.g. &nbsp;) into numeric
// XML entities and escapes stray ampersands, so that strict parsing can
// succeed on feeds with sloppy escaping.
func repairEntities(text string) string {
	text = namedEntityRe.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]
		if xmlEntities[name] {
			return m
		}
		decoded := html.UnescapeString(m)
		if decoded == m {
			// Unknown entity: neutralize the ampersand, keep the text.
			return "&amp;" + name + ";"
		}
		var b strings.Builder
		for _, r := range decoded {
			fmt.Fprintf(&b, "&#%d;", r)
		}
		return b.String()
	})

	return bareAmpRe.ReplaceAllStringFunc(text, func(m string) string {
		if m == "&" {
			return "&amp;"
		}
		return m
	})
}

// feedStrategy is the strict tier: a real RSS/Atom parse over the repaired
// document.
type feedStrategy struct{}

func (feedStrategy) name() string { return "strict" }

func (feedStrategy) parse(text, source string) ([]models.Entry, error) {
	parsed, err := gofeed.NewParser().ParseString(text)
	if err != nil {
		return nil, err
	}

	entries := make([]models.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = noTitle
		}
		link := strings.TrimSpace(item.Link)
		uid := strings.TrimSpace(item.GUID)
		if uid == "" {
			uid = link
		}
		if uid == "" {
			uid = title
		}
		published := strings.TrimSpace(item.Published)
		if published == "" {
			published = strings.TrimSpace(item.Updated)
		}
		entries = append(entries, models.Entry{
			Source:    source,
			Title:     title,
			Link:      link,
			UID:       uid,
			Published: published,
		})
	}
	return entries, nil
}

// regexStrategy is the last-resort tier: pattern-match <item> blocks out of
// documents too broken for any XML parser.
type regexStrategy struct{}

var (
	itemBlockRe = regexp.MustCompile(`(?is)<item\b[^>]*>(.*?)</item>`)
	titleRe     = regexp.MustCompile(`(?is)<title\b[^>]*>(.*?)</title>`)
	linkRe      = regexp.MustCompile(`(?is)<link\b[^>]*>(.*?)</link>`)
	guidRe      = regexp.MustCompile(`(?is)<guid\b[^>]*>(.*?)</guid>`)
	pubDateRe   = regexp.MustCompile(`(?is)<pubDate\b[^>]*>(.*?)</pubDate>`)
	cdataRe     = regexp.MustCompile(`(?s)^<!\[CDATA\[(.*)\]\]>$`)
)

func (regexStrategy) name() string { return "regex" }

func (regexStrategy) parse(text, source string) ([]models.Entry, error) {
	blocks := itemBlockRe.FindAllStringSubmatch(text, maxFallbackItems)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no item blocks found")
	}

	var entries []models.Entry
	for _, block := range blocks {
		raw := block[1]
		title := stripCDATA(firstGroup(titleRe, raw))
		link := stripCDATA(firstGroup(linkRe, raw))
		guid := stripCDATA(firstGroup(guidRe, raw))
		published := firstGroup(pubDateRe, raw)

		uid := guid
		if uid == "" {
			uid = link
		}
		if uid == "" {
			uid = title
		}
		if title == "" {
			title = noTitle
			if uid == "" {
				uid = title
			}
		}
		entries = append(entries, models.Entry{
			Source:    source,
			Title:     title,
			Link:      link,
			UID:       uid,
			Published: published,
		})
	}
	return entries, nil
}

func firstGroup(re *regexp.Regexp, raw string) string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strings.TrimSpace(m[1])))
}

func stripCDATA(s string) string {
	if m := cdataRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}
