package alerting

import "errors"

// ErrNotFound indicates a missing alerting record.
var ErrNotFound = errors.New("alerting: not found")

// ErrDuplicateConfig indicates an alert config already exists for the
// (field, event type) pair.
var ErrDuplicateConfig = errors.New("alerting: config exists for field and event type")

// ErrThresholdRange indicates a threshold outside [0, 1].
var ErrThresholdRange = errors.New("alerting: threshold out of range")

// ErrProbabilityRange indicates a probability outside [0, 1]. The storage
// layer enforces the range with check constraints; seeing it here means a
// defective row slipped through and the run must fail rather than clamp.
var ErrProbabilityRange = errors.New("alerting: probability out of range")
