package session

import (
	"errors"
	"sync"
	"time"
)

type mockSink struct {
	mu      sync.Mutex
	entries []Entry
	files   []string
	ids     []string
	err     error
}

func (s *mockSink) RecordEntry(id string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
	s.entries = append(s.entries, e)
	return s.err
}

func (s *mockSink) RecordFileLoad(id, path string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
	s.files = append(s.files, path)
	return s.err
}

var errSink = errors.New("sink down")

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return t0 }
}
