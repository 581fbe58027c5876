package document

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// Memory is an in-process document root. Batches are staged on a copy and
// swapped in only when they succeed, so readers see either the old or the new
// state.
type Memory struct {
	mu      sync.RWMutex
	classes []string
	props   map[string]string
	commits uint64
}

// NewMemory creates an empty document.
func NewMemory() *Memory {
	return &Memory{props: make(map[string]string)}
}

// Batch implements ports.DocumentRoot.
func (m *Memory) Batch(fn func(ports.DocumentWriter) error) error {
	return m.batch(fn, nil)
}

// batch runs fn on a staged copy. commit, when set, sees the staged state and
// may veto it before it becomes visible.
func (m *Memory) batch(fn func(ports.DocumentWriter) error, commit func(ports.DocumentSnapshot) error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := &writer{
		classes: slices.Clone(m.classes),
		props:   maps.Clone(m.props),
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("document batch panicked: %v", r)
		}
	}()

	if err := fn(staged); err != nil {
		return err
	}
	if commit != nil {
		if err := commit(staged.snapshot()); err != nil {
			return err
		}
	}
	m.classes = staged.classes
	m.props = staged.props
	m.commits++
	return nil
}

// Snapshot implements ports.DocumentRoot.
func (m *Memory) Snapshot() ports.DocumentSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ports.DocumentSnapshot{
		Classes:    slices.Clone(m.classes),
		Properties: maps.Clone(m.props),
	}
}

// Commits returns how many batches have been applied.
func (m *Memory) Commits() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

func (m *Memory) restore(snap ports.DocumentSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classes = slices.Clone(snap.Classes)
	m.props = maps.Clone(snap.Properties)
	if m.props == nil {
		m.props = make(map[string]string)
	}
}

type writer struct {
	classes []string
	props   map[string]string
}

func (w *writer) Classes() []string { return slices.Clone(w.classes) }

func (w *writer) AddClass(name string) {
	if name == "" || slices.Contains(w.classes, name) {
		return
	}
	w.classes = append(w.classes, name)
}

func (w *writer) RemoveClass(name string) {
	w.classes = slices.DeleteFunc(w.classes, func(c string) bool { return c == name })
}

func (w *writer) Property(name string) (string, bool) {
	v, ok := w.props[name]
	return v, ok
}

func (w *writer) PropertyNames() []string {
	return slices.Sorted(maps.Keys(w.props))
}

func (w *writer) SetProperty(name, value string) {
	if w.props == nil {
		w.props = make(map[string]string)
	}
	w.props[name] = value
}

func (w *writer) RemoveProperty(name string) { delete(w.props, name) }

func (w *writer) snapshot() ports.DocumentSnapshot {
	return ports.DocumentSnapshot{
		Classes:    slices.Clone(w.classes),
		Properties: maps.Clone(w.props),
	}
}

var _ ports.DocumentRoot = (*Memory)(nil)
