package ports

// DocumentRoot is the shared element whose classes and root-level style
// variables define the visible theme. Batch must be all-or-nothing: the
// mutation staged by fn becomes visible only when fn returns nil, and a failed
// or panicking fn leaves the previous state untouched. Readers must never
// observe a partially applied batch.
type DocumentRoot interface {
	Batch(fn func(DocumentWriter) error) error
	Snapshot() DocumentSnapshot
}

// DocumentWriter stages mutations inside a Batch.
type DocumentWriter interface {
	Classes() []string
	AddClass(name string)
	RemoveClass(name string)
	Property(name string) (string, bool)
	PropertyNames() []string
	SetProperty(name, value string)
	RemoveProperty(name string)
}

// DocumentSnapshot is an immutable copy of the document root state.
type DocumentSnapshot struct {
	Classes    []string
	Properties map[string]string
}

// HasClass reports whether the snapshot carries the given class.
func (s DocumentSnapshot) HasClass(name string) bool {
	for _, class := range s.Classes {
		if class == name {
			return true
		}
	}
	return false
}
