package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

const defaultCheckTimeout = 2 * time.Second

// Check probes one backing dependency.
type Check func(ctx context.Context) error

// Report is the health payload served at /api/health.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Service runs registered dependency checks.
type Service struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
}

// NewService constructs a new health service. A non-positive timeout uses 2s.
func NewService(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return &Service{checks: make(map[string]Check), timeout: timeout}
}

// Register adds a named check, replacing any previous check with that name.
func (s *Service) Register(name string, check Check) {
	if check == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Status runs every check concurrently under the service timeout.
func (s *Service) Status(ctx context.Context) Report {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]Check, len(names))
	for i, name := range names {
		checks[i] = s.checks[name]
	}
	s.mu.RUnlock()

	report := Report{OK: true}
	if len(names) == 0 {
		return report
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := make([]error, len(names))
	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = checks[i](ctx)
		}(i)
	}
	wg.Wait()

	report.Checks = make(map[string]string, len(names))
	for i, name := range names {
		if results[i] != nil {
			report.OK = false
			report.Checks[name] = results[i].Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
