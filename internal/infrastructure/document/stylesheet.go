package document

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/prism/internal/infrastructure/fsutil"
	"github.com/alexisbeaulieu97/prism/internal/ports"
)

const classesHeader = "/* prism classes: "

// Stylesheet is a document root persisted as a CSS file. Every batch renders
// the staged state to a temporary file and renames it into place; the batch
// only becomes visible once the file is written.
type Stylesheet struct {
	path     string
	selector string
	mem      *Memory
}

// OpenStylesheet loads path if it exists so later batches can see the
// properties written by earlier runs.
func OpenStylesheet(path, selector string) (*Stylesheet, error) {
	if selector == "" {
		selector = ":root"
	}
	s := &Stylesheet{path: path, selector: selector, mem: NewMemory()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read stylesheet: %w", err)
	}
	s.mem.restore(ParseCSS(data))
	return s, nil
}

// Path returns the stylesheet location.
func (s *Stylesheet) Path() string { return s.path }

// Batch implements ports.DocumentRoot.
func (s *Stylesheet) Batch(fn func(ports.DocumentWriter) error) error {
	return s.mem.batch(fn, func(snap ports.DocumentSnapshot) error {
		return s.write(RenderCSS(snap, s.selector))
	})
}

// Snapshot implements ports.DocumentRoot.
func (s *Stylesheet) Snapshot() ports.DocumentSnapshot {
	return s.mem.Snapshot()
}

func (s *Stylesheet) write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create stylesheet directory: %w", err)
	}
	if err := fsutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write stylesheet: %w", err)
	}
	return nil
}

// RenderCSS renders a snapshot as a rule on selector with sorted custom
// properties. Classes are recorded in a leading comment.
func RenderCSS(snap ports.DocumentSnapshot, selector string) []byte {
	var b bytes.Buffer
	b.WriteString(classesHeader)
	b.WriteString(strings.Join(snap.Classes, " "))
	b.WriteString(" */\n")
	b.WriteString(selector)
	b.WriteString(" {\n")
	for _, name := range slices.Sorted(maps.Keys(snap.Properties)) {
		fmt.Fprintf(&b, "  %s: %s;\n", name, snap.Properties[name])
	}
	b.WriteString("}\n")
	return b.Bytes()
}

// ParseCSS reads back a stylesheet produced by RenderCSS. Lines it does not
// recognise are ignored.
func ParseCSS(data []byte) ports.DocumentSnapshot {
	snap := ports.DocumentSnapshot{Properties: make(map[string]string)}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, classesHeader); ok {
			snap.Classes = strings.Fields(strings.TrimSuffix(rest, "*/"))
			continue
		}
		if !strings.HasPrefix(line, "--") {
			continue
		}
		name, value, ok := strings.Cut(strings.TrimSuffix(line, ";"), ":")
		if !ok {
			continue
		}
		snap.Properties[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return snap
}

var _ ports.DocumentRoot = (*Stylesheet)(nil)
