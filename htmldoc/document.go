// Package htmldoc exposes text containers of an HTML document to the render
// scheduler. Containers are elements carrying configured class, their inner
// HTML is the text placeholders are searched in.
package htmldoc

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"imgres/render"
)

// Document is safe for concurrent use.
type Document struct {
	mu         sync.Mutex
	root       *html.Node
	containers map[string]*html.Node
	order      []string
}

var _ render.Document = (*Document)(nil)

// Parse reads HTML document converting it to UTF-8 when necessary.
// Containers without id attribute get generated ones.
func Parse(r io.Reader, contentType, class string) (*Document, error) {
	cr, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("unable to detect document encoding: %w", err)
	}
	root, err := html.Parse(cr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse document: %w", err)
	}

	d := &Document{root: root, containers: make(map[string]*html.Node)}
	for n := range root.Descendants() {
		if n.Type != html.ElementNode || !hasClass(n, class) {
			continue
		}
		id := attr(n, "id")
		if len(id) == 0 || d.containers[id] != nil {
			id = "c" + strconv.Itoa(len(d.order)+1)
		}
		d.containers[id] = n
		d.order = append(d.order, id)
	}
	return d, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	return slices.Contains(strings.Fields(attr(n, "class")), class)
}

// IDs returns container ids in document order.
func (d *Document) IDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.order)
}

// Text returns inner HTML of container.
func (d *Document) Text(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.containers[id]
	if !ok {
		return "", false
	}
	var buf bytes.Buffer
	for c := range n.ChildNodes() {
		if err := html.Render(&buf, c); err != nil {
			return "", false
		}
	}
	return buf.String(), true
}

// Patch replaces container content with markup.
func (d *Document) Patch(id, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.containers[id]
	if !ok {
		return fmt.Errorf("container %q is gone", id)
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return fmt.Errorf("unable to parse markup: %w", err)
	}
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// Remove detaches container from document.
func (d *Document) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.containers[id]
	if !ok {
		return false
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	delete(d.containers, id)
	d.order = slices.DeleteFunc(d.order, func(s string) bool { return s == id })
	return true
}

// Render writes whole document.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}
