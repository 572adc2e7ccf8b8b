package util

// Filter returns the elements of slice that satisfy keep, in order. The
// result is never nil.
func Filter[T any](slice []T, keep func(T) bool) []T {
	out := make([]T, 0, len(slice))
	for _, item := range slice {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Unique returns slice without repeated values, keeping first occurrences.
func Unique[T comparable](slice []T) []T {
	seen := make(map[T]struct{}, len(slice))
	out := make([]T, 0, len(slice))
	for _, item := range slice {
		if _, ok := seen[item]; !ok {
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
