package session

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/rigorexec/logging"
)

// EmptyLogMessage is returned by Retrieve when nothing has been recorded.
const EmptyLogMessage = "No code has been executed yet in this session. " +
	"Run analysis code with execute_code first; every attempt is recorded here."

// Entry is one recorded execution attempt. Entries are never mutated after
// they are appended.
type Entry struct {
	Step        int       `json:"step"`
	Timestamp   time.Time `json:"timestamp"`
	Code        string    `json:"code"`
	Success     bool      `json:"success"`
	Error       string    `json:"error"`
	Description string    `json:"description"`
}

// Summary is a compact view of a Log.
type Summary struct {
	SessionID       string   `json:"session_id"`
	TotalSteps      int      `json:"total_steps"`
	SuccessfulSteps int      `json:"successful_steps"`
	FailedSteps     int      `json:"failed_steps"`
	LoadedFiles     []string `json:"loaded_files"`
	ScriptExported  bool     `json:"script_exported"`
}

// Retrieval is the answer to a log query.
type Retrieval struct {
	Summary Summary `json:"summary"`
	Entries []Entry `json:"entries"`
	Message string  `json:"message,omitempty"`
}

// Sink mirrors log activity somewhere durable.
//
// Contract:
// - Sink errors never fail the recording call; the Log logs and drops them.
// - Calls for one session arrive in recording order.
type Sink interface {
	RecordEntry(sessionID string, e Entry) error
	RecordFileLoad(sessionID, path string, at time.Time) error
}

// Log records code executions and file loads for one conversational
// session.
//
// Contract:
// - Concurrency: safe for concurrent use, but step numbers reflect the
//   order in which Record calls acquire the lock.
// - Steps are 1-based and increase by one per Record.
// - LoadedFiles is an insertion-ordered set of absolute paths.
// - ScriptExported only changes from false to true; Clear resets it.
type Log struct {
	mu       sync.RWMutex
	id       string
	entries  []Entry
	files    []string
	seen     map[string]struct{}
	exported bool

	sink   Sink
	logger logging.Logger
	now    func() time.Time
}

// LogOption configures a Log.
type LogOption func(*Log)

// WithSink mirrors every entry and file load into s.
func WithSink(s Sink) LogOption {
	return func(l *Log) { l.sink = s }
}

// WithLogger sets the logger used for debug traces and sink failures.
func WithLogger(lg logging.Logger) LogOption {
	return func(l *Log) { l.logger = logging.OrNop(lg) }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) LogOption {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLog creates an empty log with a fresh session ID.
func NewLog(opts ...LogOption) *Log {
	l := &Log{
		id:     uuid.NewString(),
		seen:   make(map[string]struct{}),
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ID returns the current session identifier.
func (l *Log) ID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.id
}

// Record appends an execution attempt and returns the stored entry.
func (l *Log) Record(code string, success bool, errText, description string) Entry {
	l.mu.Lock()
	e := Entry{
		Step:        len(l.entries) + 1,
		Timestamp:   l.now(),
		Code:        code,
		Success:     success,
		Error:       errText,
		Description: description,
	}
	l.entries = append(l.entries, e)
	id, sink := l.id, l.sink
	l.mu.Unlock()

	l.logger.Debug("session step recorded", "session", id, "step", e.Step, "success", success)
	if sink != nil {
		if err := sink.RecordEntry(id, e); err != nil {
			l.logger.Warn("session sink failed", "session", id, "step", e.Step, "error", err)
		}
	}
	return e
}

// RecordFileLoad adds path to the loaded-file set. It returns false when the
// canonical path was already present.
func (l *Log) RecordFileLoad(path string) bool {
	canonical := canonicalPath(path)

	l.mu.Lock()
	if _, dup := l.seen[canonical]; dup {
		l.mu.Unlock()
		return false
	}
	l.seen[canonical] = struct{}{}
	l.files = append(l.files, canonical)
	id, sink, at := l.id, l.sink, l.now()
	l.mu.Unlock()

	l.logger.Debug("session file load recorded", "session", id, "path", canonical)
	if sink != nil {
		if err := sink.RecordFileLoad(id, canonical, at); err != nil {
			l.logger.Warn("session sink failed", "session", id, "path", canonical, "error", err)
		}
	}
	return true
}

func canonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// Entries returns a copy of all entries in step order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Successful returns the entries whose execution succeeded.
func (l *Log) Successful() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	for _, e := range l.entries {
		if e.Success {
			out = append(out, e)
		}
	}
	return out
}

// LoadedFiles returns the loaded-file set in insertion order.
func (l *Log) LoadedFiles() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.files...)
}

// Len returns the number of recorded steps.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// ScriptExported reports whether a reproducible script was saved since the
// last Clear.
func (l *Log) ScriptExported() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.exported
}

// MarkExported latches ScriptExported to true.
func (l *Log) MarkExported() {
	l.mu.Lock()
	l.exported = true
	l.mu.Unlock()
}

// Clear truncates the log for a new conversational session and assigns a
// new session ID.
func (l *Log) Clear() {
	l.mu.Lock()
	old := l.id
	l.id = uuid.NewString()
	l.entries = nil
	l.files = nil
	l.seen = make(map[string]struct{})
	l.exported = false
	l.mu.Unlock()
	l.logger.Debug("session log cleared", "previous", old)
}

// Summary returns step counts and file loads.
func (l *Log) Summary() Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := Summary{
		SessionID:      l.id,
		TotalSteps:     len(l.entries),
		LoadedFiles:    append([]string{}, l.files...),
		ScriptExported: l.exported,
	}
	for _, e := range l.entries {
		if e.Success {
			s.SuccessfulSteps++
		} else {
			s.FailedSteps++
		}
	}
	return s
}

// Retrieve returns the summary and all entries. An empty log carries
// EmptyLogMessage and a non-nil empty entry list.
func (l *Log) Retrieve() Retrieval {
	r := Retrieval{Summary: l.Summary(), Entries: l.Entries()}
	if r.Entries == nil {
		r.Entries = []Entry{}
	}
	if len(r.Entries) == 0 {
		r.Message = EmptyLogMessage
	}
	return r
}
