package document

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// linkAttrs maps element names to the attribute that carries a URL.
// These are the attributes rewritten by AbsolutizeLinks.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"iframe": "src",
	"form":   "action",
}

// Document is a leniently parsed HTML page bound to the URL it was
// fetched from. Malformed markup never fails the parse; the html package
// repairs what it can.
type Document struct {
	root *html.Node
	doc  *goquery.Document
	base *url.URL
}

// Parse reads and parses HTML from r. baseURL is the address the page
// was fetched from; relative links resolve against it. Parsing fails
// only on reader errors or an unparsable base URL.
func Parse(r io.Reader, baseURL string) (*Document, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document from %s: %w", baseURL, err)
	}

	return &Document{
		root: root,
		doc:  goquery.NewDocumentFromNode(root),
		base: base,
	}, nil
}

// ParseBytes parses HTML from an in-memory buffer.
func ParseBytes(content []byte, baseURL string) (*Document, error) {
	return Parse(bytes.NewReader(content), baseURL)
}

// Find returns the nodes matching a CSS selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// BaseURL returns a copy of the URL the document was fetched from.
func (d *Document) BaseURL() *url.URL {
	u := *d.base
	return &u
}

// Title returns the trimmed text of the title element, if any.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Text returns the concatenated text content of the whole document.
func (d *Document) Text() string {
	return d.doc.Text()
}

// AbsolutizeLinks rewrites relative URL attributes (a/link href,
// img/script/iframe src, form action) into absolute URLs against the
// document's base. Non-navigational values (javascript:, mailto:, tel:,
// data:, a bare "#") and unparsable values are left untouched. The
// rewrite mutates the tree, so a later HTML call serializes the
// absolutized form.
func (d *Document) AbsolutizeLinks() {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				for i := range n.Attr {
					if n.Attr[i].Key != attr {
						continue
					}
					if resolved := d.resolve(n.Attr[i].Val); resolved != "" {
						n.Attr[i].Val = resolved
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
}

// Links returns the absolute form of every anchor href, deduplicated,
// in document order.
func (d *Document) Links() []string {
	seen := make(map[string]bool)
	links := make([]string, 0)

	d.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		resolved := d.resolve(href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})

	return links
}

// HTML serializes the document. The output parses back into an
// equivalent tree.
func (d *Document) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return nil, fmt.Errorf("failed to serialize document from %s: %w", d.base, err)
	}
	return buf.Bytes(), nil
}

// resolve turns href into an absolute URL against the base. It returns
// "" for values that are not navigational links or cannot be parsed.
func (d *Document) resolve(href string) string {
	if href == "" {
		return ""
	}

	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return d.base.ResolveReference(u).String()
}
