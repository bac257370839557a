package health

import (
	"context"
	"sync"
)

// Registry aggregates dependency probes for the readiness endpoint.
type Registry struct {
	checkers []Checker
}

func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

// CheckResult is one named probe outcome in the readiness response.
type CheckResult struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// ReadinessResponse aggregates all probe outcomes. The overall status is
// down as soon as any single probe is down.
type ReadinessResponse struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

// CheckAll probes every registered dependency concurrently.
func (r *Registry) CheckAll(ctx context.Context) ReadinessResponse {
	if len(r.checkers) == 0 {
		return ReadinessResponse{Status: StatusUp}
	}

	checks := make([]CheckResult, len(r.checkers))
	var wg sync.WaitGroup
	wg.Add(len(r.checkers))

	for i, checker := range r.checkers {
		go func() {
			defer wg.Done()
			probe := checker.Check(ctx)
			checks[i] = CheckResult{
				Name:    checker.Name(),
				Status:  probe.Status,
				Message: probe.Message,
			}
		}()
	}

	wg.Wait()

	overall := StatusUp
	for _, check := range checks {
		if check.Status == StatusDown {
			overall = StatusDown
			break
		}
	}

	return ReadinessResponse{Status: overall, Checks: checks}
}
