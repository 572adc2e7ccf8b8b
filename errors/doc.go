// Package errors provides the structured error type used for protocol
// violations in stepflow.
//
// Result-status errors (a service returning result.Error) are values, not Go
// errors. The AppError defined here is reserved for misuse of the library
// itself: chaining after a terminal collection operation, projecting a key
// that does not exist, iterating something that is not a collection, and
// malformed pipeline definitions. Every AppError carries a machine-readable
// ErrorCode so callers can match with HasCode or errors.Is.
package errors
