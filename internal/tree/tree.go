// package tree navigates loosely shaped JSON documents where any field may
// be absent or of an unexpected type.
package tree

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Node is a position in a parsed document. A missing node is safe to keep
// navigating; every accessor on it reports absence.
type Node struct {
	v  any
	ok bool
}

// Missing reports whether the node does not exist.
func (n Node) Missing() bool { return !n.ok }

// Value returns the underlying decoded value.
func (n Node) Value() any { return n.v }

// Has reports whether n is an object carrying key.
func (n Node) Has(key string) bool {
	return !n.Get(key).Missing()
}

// Get returns the member key of an object node.
func (n Node) Get(key string) Node {
	obj, ok := n.v.(*Object)
	if !n.ok || !ok {
		return Node{}
	}
	v, found := obj.Lookup(key)
	return Node{v: v, ok: found}
}

// Index returns element i of an array node.
func (n Node) Index(i int) Node {
	arr, ok := n.v.([]any)
	if !n.ok || !ok || i < 0 || i >= len(arr) {
		return Node{}
	}
	return Node{v: arr[i], ok: true}
}

// Path follows a chain of object keys.
func (n Node) Path(keys ...string) Node {
	for _, k := range keys {
		n = n.Get(k)
	}
	return n
}

// String returns the node as a string. Numbers are not converted.
func (n Node) String() (string, bool) {
	s, ok := n.v.(string)
	return s, n.ok && ok
}

// StringOr returns the string value or def.
func (n Node) StringOr(def string) string {
	if s, ok := n.String(); ok {
		return s
	}
	return def
}

// Int returns the node as an integer. Numeric strings are accepted because
// the provider encodes several numeric fields as strings.
func (n Node) Int() (int64, bool) {
	if !n.ok {
		return 0, false
	}
	switch v := n.v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i, true
		}
	case float64:
		return int64(v), true
	}
	return 0, false
}

// IntOr returns the integer value or def.
func (n Node) IntOr(def int64) int64 {
	if i, ok := n.Int(); ok {
		return i
	}
	return def
}

// Array returns the elements of an array node.
func (n Node) Array() ([]Node, bool) {
	arr, ok := n.v.([]any)
	if !n.ok || !ok {
		return nil, false
	}
	out := make([]Node, len(arr))
	for i, v := range arr {
		out[i] = Node{v: v, ok: true}
	}
	return out, true
}

// Last returns the final element of an array node.
func (n Node) Last() Node {
	arr, ok := n.v.([]any)
	if !n.ok || !ok || len(arr) == 0 {
		return Node{}
	}
	return Node{v: arr[len(arr)-1], ok: true}
}

// Runs concatenates the text of every entry in the node's runs array.
func (n Node) Runs() string {
	runs, _ := n.Get("runs").Array()
	var b strings.Builder
	for _, r := range runs {
		if s, ok := r.Get("text").String(); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

// FindParents returns every object carrying key, in the order the key is
// met while walking the document. The value under a matching key is not
// searched further.
func (n Node) FindParents(key string) []Node {
	var out []Node
	n.find(key, func(obj *Object, _ any) {
		out = append(out, Node{v: obj, ok: true})
	})
	return out
}

// FindValues returns the values stored under key at any depth, in document
// order. Matches nested inside a matching value are not reported.
func (n Node) FindValues(key string) []Node {
	var out []Node
	n.find(key, func(_ *Object, v any) {
		out = append(out, Node{v: v, ok: true})
	})
	return out
}

// FindFirst returns the first value stored under key at any depth.
func (n Node) FindFirst(key string) Node {
	if vals := n.FindValues(key); len(vals) > 0 {
		return vals[0]
	}
	return Node{}
}

func (n Node) find(key string, match func(obj *Object, v any)) {
	if !n.ok {
		return
	}
	var rec func(v any)
	rec = func(v any) {
		switch t := v.(type) {
		case *Object:
			for _, k := range t.keys {
				if k == key {
					match(t, t.values[k])
					continue
				}
				rec(t.values[k])
			}
		case []any:
			for _, e := range t {
				rec(e)
			}
		}
	}
	rec(n.v)
}
