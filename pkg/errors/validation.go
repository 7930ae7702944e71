package errors

import "runtime"

// ValidateSize checks a permutation size against the exclusive bound max.
func ValidateSize(n, max int) error {
	if n < 0 {
		return New(ErrCodeInvalidSize, "value of n must not be negative (got %d)", n)
	}
	if n >= max {
		return New(ErrCodeInvalidSize, "value of n must be less than %d", max)
	}
	return nil
}

// ValidateBlockCount checks the preferred block count hint.
// Zero is accepted and means "use the default".
func ValidateBlockCount(count int) error {
	if count < 0 {
		return New(ErrCodeInvalidBlockCount, "block count must not be negative (got %d)", count)
	}
	return nil
}

// maxWorkers caps the worker pool far above any useful degree of parallelism.
var maxWorkers = 64 * runtime.NumCPU()

// ValidateWorkers checks a worker count. Zero means GOMAXPROCS.
func ValidateWorkers(workers int) error {
	if workers < 0 {
		return New(ErrCodeInvalidInput, "workers must not be negative (got %d)", workers)
	}
	if workers > maxWorkers {
		return New(ErrCodeInvalidInput, "workers too large (max %d)", maxWorkers)
	}
	return nil
}
