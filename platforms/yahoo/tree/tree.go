// Package tree turns Yahoo's XML responses into plain maps and lists.
//
// The shape follows what a loose XML-to-object parser produces: attributes are
// merged into their element's map, an element that occurs once is a single
// value and an element that repeats becomes a []any. Callers must not assume
// either shape for anything that can repeat; use AsArray.
package tree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TextKey holds the character data of an element that also has attributes or children.
const TextKey = "_"

var ErrEmptyDocument = errors.New("empty document")

type frame struct {
	name string
	obj  map[string]any
	text strings.Builder
}

// Parse decodes raw into {rootName: value}.
func Parse(raw []byte) (map[string]any, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	// Yahoo always answers UTF-8 but some fixtures declare other names for it.
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var stack []*frame
	var root map[string]any

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := &frame{name: t.Name.Local, obj: map[string]any{}}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				f.obj[a.Name.Local] = a.Value
			}
			stack = append(stack, f)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			v := f.value()
			if len(stack) == 0 {
				root = map[string]any{f.name: v}
				continue
			}
			addChild(stack[len(stack)-1].obj, f.name, v)
		}
	}

	if root == nil {
		return nil, ErrEmptyDocument
	}
	return root, nil
}

func (f *frame) value() any {
	text := strings.TrimSpace(f.text.String())
	if len(f.obj) == 0 {
		return text
	}
	if text != "" {
		f.obj[TextKey] = text
	}
	return f.obj
}

func addChild(parent map[string]any, name string, v any) {
	existing, ok := parent[name]
	if !ok {
		parent[name] = v
		return
	}
	if list, ok := existing.([]any); ok {
		parent[name] = append(list, v)
		return
	}
	parent[name] = []any{existing, v}
}

// AsArray returns nil as an empty list, a list unchanged and anything else as
// a one element list.
func AsArray(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return t
	default:
		return []any{v}
	}
}

// Get walks path from v and returns nil as soon as a step is missing. A
// numeric step indexes a list; on a single value, step "0" is the value
// itself, so Get(x, "team", "0") works for one team or many. Maps keyed by
// ordinals are read like any other map.
func Get(v any, path ...string) any {
	cur := v
	for _, seg := range path {
		switch t := cur.(type) {
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				if seg == "0" {
					continue
				}
				return nil
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil
			}
			cur = t[i]
		case nil:
			return nil
		default:
			if seg != "0" {
				return nil
			}
		}
	}
	return cur
}
