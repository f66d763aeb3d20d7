package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/yungbote/neurobridge-grading/internal/data/aggregates"
)

// HooksRecorder keeps every status reported per operation plus conflict and retry tallies.
type HooksRecorder struct {
	mu        sync.Mutex
	statuses  map[string][]string
	conflicts map[string]int
	retries   map[string]int
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.statuses == nil {
		h.statuses = map[string][]string{}
	}
	h.statuses[name] = append(h.statuses[name], status)
}

func (h *HooksRecorder) IncConflict(name string) { h.bump(&h.conflicts, name) }

func (h *HooksRecorder) IncRetry(name string) { h.bump(&h.retries, name) }

func (h *HooksRecorder) bump(m *map[string]int, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if *m == nil {
		*m = map[string]int{}
	}
	(*m)[name]++
}

// LastStatus is the most recent status reported for name, or "".
func (h *HooksRecorder) LastStatus(name string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.statuses[name]
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

func (h *HooksRecorder) ConflictCount() int { return h.total(h.conflicts) }

func (h *HooksRecorder) RetryCount() int { return h.total(h.retries) }

func (h *HooksRecorder) total(m map[string]int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

// String summarises everything recorded, for failure messages.
func (h *HooksRecorder) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fmt.Sprintf("statuses=%v conflicts=%v retries=%v", h.statuses, h.conflicts, h.retries)
}
