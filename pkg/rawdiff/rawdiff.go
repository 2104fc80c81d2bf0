// Package rawdiff compares two metadata documents as plain JSON trees.
//
// It applies no normalization: renamed type ids, reordered registries and
// documentation edits all show up. Use it to troubleshoot the reducer, not to
// decide compatibility.
package rawdiff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/platinummonkey/palletdiff/pkg/reduced"
)

// Kind says what happened at a path.
type Kind string

const (
	KindAdded   Kind = "added"
	KindRemoved Kind = "removed"
	KindChanged Kind = "changed"
)

// Change is one differing leaf. Old is nil for additions, New for removals.
type Change struct {
	Path string `json:"path" yaml:"path"`
	Kind Kind   `json:"kind" yaml:"kind"`
	Old  any    `json:"old,omitempty" yaml:"old,omitempty"`
	New  any    `json:"new,omitempty" yaml:"new,omitempty"`
}

func (c Change) String() string {
	switch c.Kind {
	case KindAdded:
		return fmt.Sprintf("+ %s: %s", c.Path, render(c.New))
	case KindRemoved:
		return fmt.Sprintf("- %s: %s", c.Path, render(c.Old))
	}
	return fmt.Sprintf("~ %s: %s -> %s", c.Path, render(c.Old), render(c.New))
}

// Compare decodes both documents and returns their differences in path order.
func Compare(a, b []byte) ([]Change, error) {
	left, err := decode(a)
	if err != nil {
		return nil, fmt.Errorf("decoding first document: %w", err)
	}
	right, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("decoding second document: %w", err)
	}

	var changes []Change
	walk("$", left, right, &changes)
	return changes, nil
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func walk(path string, a, b any, out *[]Change) {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok {
			break
		}
		keys := make(map[string]struct{}, len(av)+len(bv))
		for k := range av {
			keys[k] = struct{}{}
		}
		for k := range bv {
			keys[k] = struct{}{}
		}
		for _, k := range reduced.SortedKeys(keys) {
			child := path + "." + k
			x, inA := av[k]
			y, inB := bv[k]
			switch {
			case !inB:
				*out = append(*out, Change{Path: child, Kind: KindRemoved, Old: x})
			case !inA:
				*out = append(*out, Change{Path: child, Kind: KindAdded, New: y})
			default:
				walk(child, x, y, out)
			}
		}
		return
	case []any:
		bv, ok := b.([]any)
		if !ok {
			break
		}
		for i := range max(len(av), len(bv)) {
			child := path + "[" + strconv.Itoa(i) + "]"
			switch {
			case i >= len(bv):
				*out = append(*out, Change{Path: child, Kind: KindRemoved, Old: av[i]})
			case i >= len(av):
				*out = append(*out, Change{Path: child, Kind: KindAdded, New: bv[i]})
			default:
				walk(child, av[i], bv[i], out)
			}
		}
		return
	}

	if !reflect.DeepEqual(a, b) {
		*out = append(*out, Change{Path: path, Kind: KindChanged, Old: a, New: b})
	}
}

func render(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	s := string(data)
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

// Summarize counts changes per kind, in added, removed, changed order.
func Summarize(changes []Change) string {
	counts := map[Kind]int{}
	for _, c := range changes {
		counts[c.Kind]++
	}
	var parts []string
	for _, k := range []Kind{KindAdded, KindRemoved, KindChanged} {
		parts = append(parts, fmt.Sprintf("%d %s", counts[k], k))
	}
	return strings.Join(parts, ", ")
}
