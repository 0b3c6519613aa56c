package browser

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Link is an anchor of a page.
type Link struct {
	Text string
	Href string
}

func (l Link) String() string {
	return l.Text + " (" + l.Href + ")"
}

// ParseLinks returns the anchors with an href attribute, in document order.
func ParseLinks(source string) ([]Link, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	var links []Link
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		if href, ok := attr(n, "href"); ok {
			links = append(links, Link{Text: textOf(n), Href: href})
		}
		return false
	})
	return links, nil
}

// ParseTitle returns the text of the first title element, or "" if there is none.
func ParseTitle(source string) (string, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return "", err
	}
	var title string
	found := false
	walk(doc, func(n *html.Node) bool {
		if found {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			title, found = textOf(n), true
			return false
		}
		return true
	})
	return title, nil
}

// walk visits the nodes depth first; visit returns false to skip the children of a node.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// textOf concatenates the text below a node and collapses white space.
func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
