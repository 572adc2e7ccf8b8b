package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Collection errors
const (
	// ErrCodeAlreadyUsedTerminalChaining indicates an operation was chained
	// after a terminal collection operation.
	ErrCodeAlreadyUsedTerminalChaining ErrorCode = "ALREADY_USED_TERMINAL_CHAINING"
	// ErrCodeCollectionNotEnumerable indicates the source cannot be iterated.
	ErrCodeCollectionNotEnumerable ErrorCode = "COLLECTION_IS_NOT_ENUMERABLE"
)

// Key view errors
const (
	// ErrCodeNotExistingAttributeForOnly indicates WithOnlyKeys referenced a missing key.
	ErrCodeNotExistingAttributeForOnly ErrorCode = "NOT_EXISTING_ATTRIBUTE_FOR_ONLY"
	// ErrCodeNotExistingAttributeForExcept indicates WithExceptKeys referenced a missing key.
	ErrCodeNotExistingAttributeForExcept ErrorCode = "NOT_EXISTING_ATTRIBUTE_FOR_EXCEPT"
	// ErrCodeNotExistingAttributeForRename indicates WithRenamedKeys referenced a missing key.
	ErrCodeNotExistingAttributeForRename ErrorCode = "NOT_EXISTING_ATTRIBUTE_FOR_RENAME"
)

// Step errors
const (
	// ErrCodeStepOutputMissing indicates a step result lacks a declared output key.
	ErrCodeStepOutputMissing ErrorCode = "STEP_OUTPUT_MISSING"
	// ErrCodeAttributeNotFound indicates an input binding read an unset attribute.
	ErrCodeAttributeNotFound ErrorCode = "ATTRIBUTE_NOT_FOUND"
	// ErrCodeStepException wraps a panic recovered from a step body.
	ErrCodeStepException ErrorCode = "STEP_EXCEPTION"
)

// Definition errors
const (
	// ErrCodeInvalidDefinition indicates a structurally invalid pipeline definition.
	ErrCodeInvalidDefinition ErrorCode = "INVALID_DEFINITION"
	// ErrCodeUnknownMethod indicates a method step names an unregistered method.
	ErrCodeUnknownMethod ErrorCode = "UNKNOWN_METHOD"
	// ErrCodeUnknownService indicates a definition names an unregistered service.
	ErrCodeUnknownService ErrorCode = "UNKNOWN_SERVICE"
	// ErrCodeDefinitionNotFound indicates no definition document matched a name.
	ErrCodeDefinitionNotFound ErrorCode = "DEFINITION_NOT_FOUND"
	// ErrCodeInvalidInput indicates configuration or document validation failed.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

var protocolCodes = map[ErrorCode]bool{
	ErrCodeAlreadyUsedTerminalChaining:   true,
	ErrCodeCollectionNotEnumerable:       true,
	ErrCodeNotExistingAttributeForOnly:   true,
	ErrCodeNotExistingAttributeForExcept: true,
	ErrCodeNotExistingAttributeForRename: true,
	ErrCodeStepOutputMissing:             true,
	ErrCodeAttributeNotFound:             true,
	ErrCodeInvalidDefinition:             true,
	ErrCodeUnknownMethod:                 true,
	ErrCodeUnknownService:                true,
	ErrCodeDefinitionNotFound:            true,
	ErrCodeInvalidInput:                  true,
}

// IsProtocol reports whether err's chain holds an AppError for library
// misuse. Fault tolerance never converts these into Results; only
// STEP_EXCEPTION and errors from outside stepflow are converted.
func IsProtocol(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && protocolCodes[appErr.Code]
}
