package result

import (
	"maps"
	"slices"

	"github.com/kbukum/stepflow/errors"
	"github.com/kbukum/stepflow/util"
)

type shape int

const (
	shapeHash shape = iota
	shapeBool
	shapeSingle
)

// View is a read-only projection over a Result's data.
//
// Directives return a new View and never modify the receiver or the source
// Result. The first directive that references a key missing from the
// accumulated key set records a sticky error; later directives are no-ops
// and Projected returns that error.
type View struct {
	source Result
	keys   []string
	values map[string]any
	shape  shape
	err    error
}

func newView(r Result) *View {
	return &View{
		source: r,
		keys:   r.Keys(),
		values: maps.Clone(map[string]any(r.data)),
		shape:  shapeHash,
	}
}

func (v *View) clone() *View {
	return &View{
		source: v.source,
		keys:   slices.Clone(v.keys),
		values: maps.Clone(v.values),
		shape:  v.shape,
		err:    v.err,
	}
}

// Status returns the status of the source Result.
func (v *View) Status() Status { return v.source.status }

// Result returns the source Result, unchanged.
func (v *View) Result() Result { return v.source }

// Err returns the first directive error, if any.
func (v *View) Err() error { return v.err }

// Keys returns the accumulated key set in order.
func (v *View) Keys() []string { return slices.Clone(v.keys) }

// checked reports whether existence checks apply. Failure and error Results
// project identically whatever the chain, so they skip the checks.
func (v *View) checked() bool { return v.source.IsSuccess() }

func (v *View) missing(keys []string) []string {
	var out []string
	for _, k := range keys {
		if _, ok := v.values[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// WithNoneKeys selects zero keys. The projection becomes a boolean.
func (v *View) WithNoneKeys() *View {
	if v.err != nil {
		return v
	}
	n := v.clone()
	n.keys = nil
	n.values = make(map[string]any)
	n.shape = shapeBool
	return n
}

// WithAllKeys keeps the accumulated key set and projects it as a map.
func (v *View) WithAllKeys() *View {
	if v.err != nil {
		return v
	}
	n := v.clone()
	n.shape = shapeHash
	return n
}

// WithOnlyKeys narrows the accumulated set to keys. With no keys it behaves
// like WithNoneKeys; with one key the projection is that key's value.
func (v *View) WithOnlyKeys(keys ...string) *View {
	if v.err != nil {
		return v
	}
	if len(keys) == 0 {
		return v.WithNoneKeys()
	}
	if v.checked() {
		if missing := v.missing(keys); len(missing) > 0 {
			n := v.clone()
			n.err = errors.NotExistingAttributeForOnly(missing...)
			return n
		}
	}
	keys = util.Unique(keys)
	n := v.clone()
	n.keys = keys
	n.values = make(map[string]any, len(keys))
	for _, k := range keys {
		if val, ok := v.values[k]; ok {
			n.values[k] = val
		}
	}
	n.shape = shapeHash
	if len(keys) == 1 {
		n.shape = shapeSingle
	}
	return n
}

// WithExceptKeys removes keys from the accumulated set. With no keys it
// behaves like WithAllKeys.
func (v *View) WithExceptKeys(keys ...string) *View {
	if v.err != nil {
		return v
	}
	if len(keys) == 0 {
		return v.WithAllKeys()
	}
	if v.checked() {
		if missing := v.missing(keys); len(missing) > 0 {
			n := v.clone()
			n.err = errors.NotExistingAttributeForExcept(missing...)
			return n
		}
	}
	n := v.clone()
	n.keys = util.Filter(n.keys, func(k string) bool { return !slices.Contains(keys, k) })
	for _, k := range keys {
		delete(n.values, k)
	}
	n.shape = shapeHash
	return n
}

// WithExtraKeys adds extra to the accumulated set. Existing keys are
// overwritten in place. A nil or empty extra leaves the view unchanged.
func (v *View) WithExtraKeys(extra Data) *View {
	if v.err != nil {
		return v
	}
	n := v.clone()
	if len(extra) == 0 {
		return n
	}
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		if _, ok := n.values[k]; !ok {
			n.keys = append(n.keys, k)
		}
		n.values[k] = extra[k]
	}
	n.shape = shapeHash
	return n
}

// WithRenamedKeys renames accumulated keys from old to new name. A nil or
// empty map leaves the view unchanged.
func (v *View) WithRenamedKeys(renames map[string]string) *View {
	if v.err != nil {
		return v
	}
	n := v.clone()
	if len(renames) == 0 {
		return n
	}
	if v.checked() {
		if missing := v.missing(slices.Sorted(maps.Keys(renames))); len(missing) > 0 {
			n.err = errors.NotExistingAttributeForRename(missing...)
			return n
		}
	}
	values := make(map[string]any, len(v.values))
	for _, k := range v.keys {
		if _, renamed := renames[k]; !renamed {
			values[k] = v.values[k]
		}
	}
	for _, k := range v.keys {
		if to, renamed := renames[k]; renamed {
			values[to] = v.values[k]
		}
	}
	keys := make([]string, 0, len(v.keys))
	for _, k := range v.keys {
		name := k
		if to, renamed := renames[k]; renamed {
			name = to
		}
		if !slices.Contains(keys, name) {
			keys = append(keys, name)
		}
	}
	n.keys = keys
	n.values = values
	n.shape = shapeHash
	return n
}

// Projected returns the value selected by the chain:
//
//   - success: true for a boolean view, the value for a single-key view,
//     otherwise a Data map of the accumulated keys
//   - failure: false for a boolean view, nil otherwise
//   - error: the error Result's own data, unprojected
func (v *View) Projected() (any, error) {
	if v.err != nil {
		return nil, v.err
	}
	switch v.source.status {
	case StatusError:
		return v.source.Data(), nil
	case StatusFailure:
		if v.shape == shapeBool {
			return false, nil
		}
		return nil, nil
	}
	switch v.shape {
	case shapeBool:
		return true, nil
	case shapeSingle:
		return v.values[v.keys[0]], nil
	}
	out := make(Data, len(v.keys))
	for _, k := range v.keys {
		out[k] = v.values[k]
	}
	return out, nil
}
