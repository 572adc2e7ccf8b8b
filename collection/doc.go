// Package collection runs service-aware combinators over enumerable sources.
//
// A Collection is a deferred chain: operations only record stages, and
// Result evaluates the chain and folds it into a result.Result. Block return
// values are interpreted through result.Projectable:
//
//   - error status: the whole combinator stops and returns that Result
//   - success: the projected value (true, a single value or a data map)
//   - failure: false, or nil for key-selecting views
//
// Any other value is used as-is; nil and false are falsy.
//
// Chains are immutable. Each operation returns a new Collection, and adding
// an operation after a terminal one (All, Any, Detect, ...) records
// ALREADY_USED_TERMINAL_CHAINING. Sources that cannot be enumerated record
// COLLECTION_IS_NOT_ENUMERABLE. Both are Go errors returned by Result, never
// Results.
//
// # Usage
//
//	res, err := collection.From(orders).
//	    Select(func(ctx context.Context, o any) (any, error) {
//	        return verify.Call(ctx, flow.Args{"order": o})
//	    }).
//	    Result(ctx)
package collection
