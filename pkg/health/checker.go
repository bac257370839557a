// Package health reports process liveness and dependency readiness.
package health

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single readiness sweep.
const DefaultTimeout = 5 * time.Second

// Status of a probed dependency.
type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Result is what one probe reports back.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker probes a single dependency the service cannot run without.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}
