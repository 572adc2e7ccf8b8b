package result

// Projectable is anything a step or block can return in place of a plain
// value: a Result, a View over one, or a step outcome with output bindings.
type Projectable interface {
	// Status returns the status of the underlying Result.
	Status() Status
	// Result returns the underlying Result.
	Result() Result
	// Projected returns the value the projection selects.
	Projected() (any, error)
}

var (
	_ Projectable = Result{}
	_ Projectable = (*View)(nil)
)
