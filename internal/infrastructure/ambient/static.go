package ambient

import (
	"sync"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// Static is a settable ambient source. It backs the --appearance flag and tests.
type Static struct {
	mu   sync.RWMutex
	dark bool
	err  error
	subs listeners
}

// NewStatic returns a source reporting dark.
func NewStatic(dark bool) *Static {
	return &Static{dark: dark}
}

// PrefersDark implements ports.AmbientSource.
func (s *Static) PrefersDark() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dark, s.err
}

// Subscribe implements ports.AmbientSource.
func (s *Static) Subscribe(fn func(dark bool)) ports.Subscription {
	return s.subs.add(fn)
}

// Set changes the reported preference and notifies subscribers when it flips.
func (s *Static) Set(dark bool) {
	s.mu.Lock()
	changed := s.dark != dark || s.err != nil
	s.dark = dark
	s.err = nil
	s.mu.Unlock()

	if changed {
		s.subs.notify(dark)
	}
}

// Fail makes subsequent reads return err, simulating an unsupported host.
func (s *Static) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

var _ ports.AmbientSource = (*Static)(nil)
