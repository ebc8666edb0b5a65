package batch

import "os"

// ExistsNonEmpty is the basic artifact check: the path exists and has
// non-zero size. Stat errors are treated as not cached so a corrupt or
// unreadable artifact is regenerated rather than silently reused.
func ExistsNonEmpty(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular() && fi.Size() > 0
}

// CachedOutput wraps ExistsNonEmpty as a cache predicate over a job's
// output path.
func CachedOutput(job Job) bool {
	return ExistsNonEmpty(job.OutputPath)
}

// MediaProbe builds a cache predicate for media artifacts: the file must
// exist, be non-empty, and pass a fast probe (a duration query, not a full
// decode). A probe error or zero duration counts as not cached.
func MediaProbe(duration func(path string) (float64, error)) CachePredicate {
	return func(job Job) bool {
		if !ExistsNonEmpty(job.OutputPath) {
			return false
		}
		d, err := duration(job.OutputPath)
		if err != nil {
			return false
		}
		return d > 0
	}
}
