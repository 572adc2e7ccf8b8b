package validation

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/kbukum/stepflow/errors"
)

// FieldError is one failed rule. Field is a document path such as
// "steps[2].branch[0]".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects field errors for one document. Validators returned by
// At and Index share the collected errors with their parent and prefix the
// fields they report.
type Validator struct {
	errs *[]FieldError
	path string
}

// New creates a Validator for a document root.
func New() *Validator {
	return &Validator{errs: new([]FieldError)}
}

// At returns a validator for the child field name.
func (v *Validator) At(name string) *Validator {
	return &Validator{errs: v.errs, path: v.field(name)}
}

// Index returns a validator for element i of the list field name.
func (v *Validator) Index(name string, i int) *Validator {
	return v.At(fmt.Sprintf("%s[%d]", name, i))
}

// Path returns the path the validator reports under; empty for a root.
func (v *Validator) Path() string { return v.path }

func (v *Validator) field(name string) string {
	switch {
	case v.path == "":
		return name
	case name == "":
		return v.path
	}
	return v.path + "." + name
}

// Add records a failed rule for field, relative to the validator's path. An
// empty field reports on the path itself.
func (v *Validator) Add(field, message string) {
	*v.errs = append(*v.errs, FieldError{Field: v.field(field), Message: message})
}

// HasErrors reports whether any rule failed.
func (v *Validator) HasErrors() bool { return len(*v.errs) > 0 }

// Errors returns the failed rules in the order they were added.
func (v *Validator) Errors() []FieldError { return slices.Clone(*v.errs) }

// Validate returns an INVALID_INPUT AppError listing every failed rule, or
// nil.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	return fieldsError(*v.errs)
}

// Err is Validate returning a plain error, so a nil result compares equal to
// nil.
func (v *Validator) Err() error {
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

func fieldsError(fields []FieldError) *errors.AppError {
	messages := make([]string, len(fields))
	for i, e := range fields {
		messages[i] = e.Field + ": " + e.Message
	}
	return errors.Validation(strings.Join(messages, "; ")).WithDetail("fields", slices.Clone(fields))
}

// Required fails when value is blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
	return v
}

// OneOf fails when a non-empty value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		v.Add(field, "must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}

// ExactlyOne fails unless exactly one of the named alternatives is set.
// set maps each alternative's name to whether it is present.
func (v *Validator) ExactlyOne(field string, set map[string]bool) *Validator {
	present := 0
	for _, ok := range set {
		if ok {
			present++
		}
	}
	if present != 1 {
		names := slices.Sorted(maps.Keys(set))
		v.Add(field, "must set exactly one of: "+strings.Join(names, ", "))
	}
	return v
}

// Custom fails with message when condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.Add(field, message)
	}
	return v
}
