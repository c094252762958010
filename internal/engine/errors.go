package engine

import "errors"

// ErrEmptyUseCov is a sentinel configuration error, checked with
// errors.Is after a wrapping fmt.Errorf, grounded on
// a-nogikh-syzkaller's pkg/asset/storage.go sentinel-error style.
// It is returned by config validation when use_cov names no metric:
// the driver would have nothing to project onto.
//
// The matching @@-placeholder sentinel lives in internal/executor
// itself rather than here: internal/engine already imports
// internal/executor for the Runner interface, so the reverse import
// would cycle.
var ErrEmptyUseCov = errors.New("use_cov must name at least one metric")
