package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Object is a JSON object that remembers the order its keys appeared in.
type Object struct {
	keys   []string
	values map[string]any
}

// Keys returns the keys in document order.
func (o *Object) Keys() []string { return o.keys }

// Lookup returns the value stored under key.
func (o *Object) Lookup(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Parse decodes one JSON document from r. Objects become [*Object], arrays
// []any, numbers [json.Number].
func Parse(r io.Reader) (Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Node{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return Node{v: v, ok: true}, nil
}

// ParseBytes is [Parse] over an in-memory document.
func ParseBytes(data []byte) (Node, error) {
	return Parse(bytes.NewReader(data))
}

// MustParse is for literals in tests and examples.
func MustParse(s string) Node {
	n, err := ParseBytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return n
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &Object{values: make(map[string]any)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		return t, nil
	}
}
