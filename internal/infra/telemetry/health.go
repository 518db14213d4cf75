package telemetry

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

const (
	HealthStatusOK       = "ok"
	HealthStatusStarting = "starting"
	HealthStatusStopping = "stopping"
)

// SourceHealth summarizes recent fetches against one upstream.
type SourceHealth struct {
	Source              string    `json:"source"`
	LastSuccess         time.Time `json:"lastSuccess,omitzero"`
	LastFailure         time.Time `json:"lastFailure,omitzero"`
	LastError           string    `json:"lastError,omitempty"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
}

type HealthReport struct {
	Status  string         `json:"status"`
	Sources []SourceHealth `json:"sources,omitempty"`
}

// HealthTracker is shared by the upstream client and the /healthz handler.
type HealthTracker struct {
	mu      sync.Mutex
	status  string
	sources map[string]*SourceHealth
	now     func() time.Time
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		status:  HealthStatusStarting,
		sources: make(map[string]*SourceHealth),
		now:     time.Now,
	}
}

func (h *HealthTracker) SetStatus(status string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
}

func (h *HealthTracker) RecordUpstream(source string, err error) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.sources[source]
	if !ok {
		entry = &SourceHealth{Source: source}
		h.sources[source] = entry
	}
	now := h.now()
	if err == nil {
		entry.LastSuccess = now
		entry.ConsecutiveFailures = 0
		return
	}
	entry.LastFailure = now
	entry.LastError = err.Error()
	entry.ConsecutiveFailures++
}

// Report returns a snapshot sorted by source name.
func (h *HealthTracker) Report() HealthReport {
	if h == nil {
		return HealthReport{Status: HealthStatusOK}
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	report := HealthReport{Status: h.status}
	if len(h.sources) == 0 {
		return report
	}
	report.Sources = make([]SourceHealth, 0, len(h.sources))
	for _, entry := range h.sources {
		report.Sources = append(report.Sources, *entry)
	}
	sort.Slice(report.Sources, func(i, j int) bool {
		return report.Sources[i].Source < report.Sources[j].Source
	})
	return report
}

// ServeHTTP answers /healthz: 200 while the status is ok, 503 otherwise.
// A nil tracker always reports ok.
func (h *HealthTracker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	report := h.Report()
	status := http.StatusOK
	if report.Status != HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
