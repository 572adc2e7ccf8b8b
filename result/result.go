package result

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Data is the key/value payload of a Result.
type Data map[string]any

// Result is the immutable outcome of a step.
// The zero value is not a valid Result.
type Result struct {
	status  Status
	data    Data
	message string
}

// Success creates a success Result. Multiple maps are merged left to right.
func Success(data ...Data) Result { return newResult(StatusSuccess, data) }

// Failure creates a failure Result.
func Failure(data ...Data) Result { return newResult(StatusFailure, data) }

// Error creates an error Result. Error data is passed through verbatim by
// every combinator and view.
func Error(data ...Data) Result { return newResult(StatusError, data) }

// New creates a Result with an explicit status.
func New(status Status, data ...Data) Result { return newResult(status, data) }

func newResult(status Status, data []Data) Result {
	merged := make(Data)
	for _, d := range data {
		maps.Copy(merged, d)
	}
	return Result{status: status, data: merged}
}

// WithMessage returns a copy of r carrying msg.
func (r Result) WithMessage(msg string) Result {
	r.message = msg
	return r
}

// Status returns the outcome class.
func (r Result) Status() Status { return r.status }

// Message returns the optional human-readable message.
func (r Result) Message() string { return r.message }

// Data returns a copy of the payload.
func (r Result) Data() Data { return maps.Clone(r.data) }

// Get returns a single payload value.
func (r Result) Get(key string) (any, bool) {
	v, ok := r.data[key]
	return v, ok
}

// Has reports whether key is present in the payload.
func (r Result) Has(key string) bool {
	_, ok := r.data[key]
	return ok
}

// Keys returns the payload keys in sorted order.
func (r Result) Keys() []string {
	return slices.Sorted(maps.Keys(r.data))
}

// Valid reports whether r was built by one of the constructors.
func (r Result) Valid() bool { return r.status.Valid() }

// IsSuccess reports whether r is a success.
func (r Result) IsSuccess() bool { return r.status == StatusSuccess }

// IsFailure reports whether r is a failure.
func (r Result) IsFailure() bool { return r.status == StatusFailure }

// IsError reports whether r is an error Result.
func (r Result) IsError() bool { return r.status == StatusError }

// IsNotSuccess reports whether r is a failure or an error.
func (r Result) IsNotSuccess() bool { return r.status != StatusSuccess }

// Result returns r, so a Result satisfies Projectable.
func (r Result) Result() Result { return r }

// Projected returns the truthy value of a bare Result: true on success,
// false otherwise.
func (r Result) Projected() (any, error) { return r.IsSuccess(), nil }

// Equal reports whether two Results have the same status, message and data.
// Data values are compared with ==, so maps and slices are compared by
// identity only.
func (r Result) Equal(other Result) bool {
	if r.status != other.status || r.message != other.message || len(r.data) != len(other.data) {
		return false
	}
	for k, v := range r.data {
		ov, ok := other.data[k]
		if !ok || !comparableEqual(v, ov) {
			return false
		}
	}
	return true
}

func comparableEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

// String renders the Result for logs, e.g. `success {a: 1, b: x}`.
func (r Result) String() string {
	var b strings.Builder
	b.WriteString(string(r.status))
	if len(r.data) > 0 {
		b.WriteString(" {")
		for i, k := range r.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %v", k, r.data[k])
		}
		b.WriteString("}")
	}
	if r.message != "" {
		fmt.Fprintf(&b, " %q", r.message)
	}
	return b.String()
}

// --- view shortcuts starting from the full key set ---

// View starts a view chain over every key of r.
func (r Result) View() *View { return newView(r) }

// WithNoneKeys selects no keys; the projection collapses to a boolean.
func (r Result) WithNoneKeys() *View { return r.View().WithNoneKeys() }

// WithAllKeys selects every key.
func (r Result) WithAllKeys() *View { return r.View().WithAllKeys() }

// WithOnlyKeys selects exactly keys.
func (r Result) WithOnlyKeys(keys ...string) *View { return r.View().WithOnlyKeys(keys...) }

// WithExceptKeys drops keys.
func (r Result) WithExceptKeys(keys ...string) *View { return r.View().WithExceptKeys(keys...) }

// WithExtraKeys adds extra to the projection.
func (r Result) WithExtraKeys(extra Data) *View { return r.View().WithExtraKeys(extra) }

// WithRenamedKeys renames keys, old name to new name.
func (r Result) WithRenamedKeys(renames map[string]string) *View {
	return r.View().WithRenamedKeys(renames)
}
