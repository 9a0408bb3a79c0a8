package omnibus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fault is one recorded task failure.
type Fault struct {
	ID       string    `json:"id"`
	Listener string    `json:"listener"`
	TaskID   string    `json:"task_id"`
	Event    any       `json:"event,omitempty"`
	Message  string    `json:"message"`
	Err      error     `json:"-"`
	At       time.Time `json:"at"`
}

// FaultLogConfig configures a FaultLog.
type FaultLogConfig struct {
	// MaxSize bounds the number of retained faults; the oldest is evicted.
	// Default: 1000
	MaxSize int

	// OnRecord is called with every fault as it is recorded.
	OnRecord func(Fault)
}

// DefaultFaultLogConfig provides reasonable defaults.
var DefaultFaultLogConfig = FaultLogConfig{
	MaxSize: 1000,
}

// FaultLog is a bounded in-memory record of task failures, for inspection
// after the fact. Failed tasks are never retried.
type FaultLog struct {
	mu     sync.RWMutex
	faults []Fault
	cfg    FaultLogConfig
	total  int64
}

// NewFaultLog creates a fault log.
func NewFaultLog(cfg FaultLogConfig) *FaultLog {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultFaultLogConfig.MaxSize
	}
	return &FaultLog{cfg: cfg}
}

// Record appends a fault built from a task error.
func (l *FaultLog) Record(te *TaskError) Fault {
	f := Fault{
		ID:       uuid.NewString(),
		Listener: te.Listener,
		TaskID:   te.TaskID,
		Event:    te.Event,
		Message:  te.Err.Error(),
		Err:      te.Err,
		At:       time.Now(),
	}

	l.mu.Lock()
	if len(l.faults) >= l.cfg.MaxSize {
		copy(l.faults, l.faults[1:])
		l.faults = l.faults[:len(l.faults)-1]
	}
	l.faults = append(l.faults, f)
	l.total++
	l.mu.Unlock()

	if l.cfg.OnRecord != nil {
		l.cfg.OnRecord(f)
	}
	return f
}

// List returns up to limit of the most recent faults, oldest first. A
// non-positive limit returns all of them.
func (l *FaultLog) List(limit int) []Fault {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if limit > 0 && limit < len(l.faults) {
		start = len(l.faults) - limit
	}
	out := make([]Fault, len(l.faults)-start)
	copy(out, l.faults[start:])
	return out
}

// ByListener returns the retained faults of one listener.
func (l *FaultLog) ByListener(listener string) []Fault {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Fault
	for _, f := range l.faults {
		if f.Listener == listener {
			out = append(out, f)
		}
	}
	return out
}

// CountByListener returns retained fault counts grouped by listener.
func (l *FaultLog) CountByListener() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[string]int)
	for _, f := range l.faults {
		counts[f.Listener]++
	}
	return counts
}

// Count returns the number of retained faults.
func (l *FaultLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.faults)
}

// Total returns the number of faults ever recorded, including evicted ones.
func (l *FaultLog) Total() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// Clear drops every retained fault.
func (l *FaultLog) Clear() {
	l.mu.Lock()
	l.faults = nil
	l.mu.Unlock()
}
