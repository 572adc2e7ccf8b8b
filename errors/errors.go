package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"strings"
)

// AppError is the Go error for protocol violations (misuse of a view,
// collection chain or definition) and invalid input. Business outcomes are
// Results, never AppErrors.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

// Error renders "CODE: message", followed by the cause when set.
func (e *AppError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches any AppError with the same code, so errors.Is(err,
// errors.New(code, "")) tests for a code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause sets Cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into Details and returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// HasCode reports whether any error in err's chain is an AppError with code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// AlreadyUsedTerminalChaining creates an error for an operation chained after
// a terminal collection operation.
func AlreadyUsedTerminalChaining(terminal, attempted string) *AppError {
	return &AppError{
		Code:    ErrCodeAlreadyUsedTerminalChaining,
		Message: fmt.Sprintf("cannot call %s after terminal operation %s", attempted, terminal),
		Details: map[string]any{"terminal": terminal, "attempted": attempted},
	}
}

// CollectionNotEnumerable creates an error for a source that cannot be iterated.
func CollectionNotEnumerable(value any) *AppError {
	return &AppError{
		Code:    ErrCodeCollectionNotEnumerable,
		Message: fmt.Sprintf("value of type %T is not enumerable", value),
		Details: map[string]any{"type": fmt.Sprintf("%T", value)},
	}
}

// NotExistingAttributeForOnly creates an error for WithOnlyKeys on missing keys.
func NotExistingAttributeForOnly(keys ...string) *AppError {
	return notExisting(ErrCodeNotExistingAttributeForOnly, "only", keys)
}

// NotExistingAttributeForExcept creates an error for WithExceptKeys on missing keys.
func NotExistingAttributeForExcept(keys ...string) *AppError {
	return notExisting(ErrCodeNotExistingAttributeForExcept, "except", keys)
}

// NotExistingAttributeForRename creates an error for WithRenamedKeys on missing keys.
func NotExistingAttributeForRename(keys ...string) *AppError {
	return notExisting(ErrCodeNotExistingAttributeForRename, "rename", keys)
}

func notExisting(code ErrorCode, directive string, keys []string) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf("%s: attribute(s) %s do not exist in the current view", directive, strings.Join(keys, ", ")),
		Details: map[string]any{"keys": keys},
	}
}

// StepOutputMissing creates an error for an output binding absent from step data.
func StepOutputMissing(step, key string) *AppError {
	return &AppError{
		Code:    ErrCodeStepOutputMissing,
		Message: fmt.Sprintf("step %s did not return output %q", step, key),
		Details: map[string]any{"step": step, "key": key},
	}
}

// AttributeNotFound creates an error for an input binding reading an unset attribute.
func AttributeNotFound(name string) *AppError {
	return &AppError{
		Code:    ErrCodeAttributeNotFound,
		Message: fmt.Sprintf("attribute %q is not set", name),
		Details: map[string]any{"attribute": name},
	}
}

// StepException creates an error wrapping a value recovered from a panic.
func StepException(step string, recovered any) *AppError {
	var cause error
	if err, ok := recovered.(error); ok {
		cause = err
	} else {
		cause = fmt.Errorf("%v", recovered)
	}
	return &AppError{
		Code:    ErrCodeStepException,
		Message: fmt.Sprintf("step %s panicked", step),
		Details: map[string]any{"step": step},
		Cause:   cause,
	}
}

// InvalidDefinition creates an error for a structurally invalid definition.
func InvalidDefinition(definition, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidDefinition,
		Message: fmt.Sprintf("definition %s: %s", definition, reason),
		Details: map[string]any{"definition": definition},
	}
}

// UnknownMethod creates an error for a method step naming an unregistered method.
func UnknownMethod(definition, method string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownMethod,
		Message: fmt.Sprintf("definition %s has no method %q", definition, method),
		Details: map[string]any{"definition": definition, "method": method},
	}
}

// UnknownService creates an error for a reference to an unregistered service.
func UnknownService(name string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownService,
		Message: fmt.Sprintf("service %q is not registered", name),
		Details: map[string]any{"service": name},
	}
}

// DefinitionNotFound creates an error for a definition name no loader source
// provides.
func DefinitionNotFound(name string, dirs []string) *AppError {
	return &AppError{
		Code:    ErrCodeDefinitionNotFound,
		Message: fmt.Sprintf("definition %q not found in %v", name, dirs),
		Details: map[string]any{"definition": name},
	}
}

// NegativeCount creates an INVALID_INPUT error for a collection operation
// given a negative element count.
func NegativeCount(op string, n int) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf("%s: negative count %d", op, n),
		Details: map[string]any{"operation": op, "count": n},
	}
}

// Validation creates an INVALID_INPUT error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}
