package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/prism/internal/domain/theme"
	"github.com/alexisbeaulieu97/prism/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/prism/internal/ports"
	prismerrors "github.com/alexisbeaulieu97/prism/pkg/errors"
)

// DefaultKey is the key the theme record is stored under.
const DefaultKey = "prism-theme"

// requiredFields are the record fields an import blob must carry.
var requiredFields = []string{"mode", "colorThemeId", "variant", "customizations", "timestamp", "schemaVersion"}

// Options configures a Manager.
type Options struct {
	Key    string
	Logger ports.Logger
}

// Manager persists the theme record and relays records written by other contexts.
type Manager struct {
	store  ports.KeyValueStore
	key    string
	logger ports.Logger
}

// New creates a Manager over store.
func New(store ports.KeyValueStore, opts Options) *Manager {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	return &Manager{
		store:  store,
		key:    key,
		logger: logging.OrNoOp(opts.Logger).With("component", "storage", "key", key),
	}
}

// Key returns the storage key.
func (m *Manager) Key() string { return m.key }

// Origin returns the origin of the underlying store handle.
func (m *Manager) Origin() string { return m.store.Origin() }

// Save writes rec as versioned JSON.
func (m *Manager) Save(ctx context.Context, rec theme.Record) error {
	rec.SchemaVersion = theme.SchemaVersion
	if rec.Customizations == nil {
		rec.Customizations = map[string]string{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return prismerrors.NewStorageError("save", m.key, err)
	}
	if err := m.store.Set(ctx, m.key, data); err != nil {
		return prismerrors.NewStorageError("save", m.key, err)
	}
	m.logger.Debug(ctx, "theme record saved", "palette_id", rec.ColorThemeID, "mode", rec.Mode)
	return nil
}

// Load returns the stored record. It returns nil without error when nothing
// usable is stored: the key is absent, the data cannot be parsed, or the
// record carries another schema version. Only backend failures are errors.
func (m *Manager) Load(ctx context.Context) (*theme.Record, error) {
	data, ok, err := m.store.Get(ctx, m.key)
	if err != nil {
		return nil, prismerrors.NewStorageError("load", m.key, err)
	}
	if !ok {
		return nil, nil
	}
	rec, err := decode(data)
	if err != nil {
		m.logger.Warn(ctx, "discarding stored theme record", "error", err)
		return nil, nil
	}
	return rec, nil
}

// Subscribe calls fn with every valid record written by another context.
// Deletions and unusable records are skipped.
func (m *Manager) Subscribe(fn func(context.Context, theme.Record)) ports.Subscription {
	return m.store.Watch(func(change ports.StorageChange) {
		if change.Key != m.key || change.Origin == m.store.Origin() || change.Value == nil {
			return
		}
		ctx := ports.WithCorrelationID(context.Background(), ports.GenerateCorrelationID())
		rec, err := decode(change.Value)
		if err != nil {
			m.logger.Warn(ctx, "ignoring remote theme record", "origin", change.Origin, "error", err)
			return
		}
		fn(ctx, *rec)
	})
}

// Export returns the stored record as an indented JSON blob.
func (m *Manager) Export(ctx context.Context) ([]byte, error) {
	rec, err := m.Load(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, prismerrors.NewStorageError("export", m.key, errNothingStored)
	}
	return json.MarshalIndent(rec, "", "  ")
}

// Import validates blob and, only when it is a complete record of the
// current schema version, stores it. A rejected blob leaves storage untouched.
func (m *Manager) Import(ctx context.Context, blob []byte) (*theme.Record, error) {
	rec, err := m.ParseImport(ctx, blob)
	if err != nil {
		return nil, err
	}
	if err := m.Save(ctx, *rec); err != nil {
		return nil, err
	}
	m.logger.Info(ctx, "theme record imported", "palette_id", rec.ColorThemeID, "mode", rec.Mode)
	return rec, nil
}

// ParseImport validates blob like Import without storing it.
func (m *Manager) ParseImport(ctx context.Context, blob []byte) (*theme.Record, error) {
	rec, err := ParseBlob(blob)
	if err != nil {
		m.logger.Warn(ctx, "import rejected", "error", err)
		return nil, err
	}
	return rec, nil
}

// Clear removes the stored record.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.key); err != nil {
		return prismerrors.NewStorageError("clear", m.key, err)
	}
	return nil
}

// ParseBlob checks an export blob's structure, required fields, enum members
// and schema version, returning ImportError on any problem.
func ParseBlob(blob []byte) (*theme.Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(blob, &fields); err != nil {
		return nil, prismerrors.NewImportError("malformed blob", err)
	}
	for _, name := range requiredFields {
		raw, ok := fields[name]
		if !ok || string(raw) == "null" {
			return nil, prismerrors.NewImportError("missing field "+name, nil)
		}
	}

	var rec theme.Record
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, prismerrors.NewImportError("malformed blob", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, prismerrors.NewImportError("invalid record", err)
	}
	return &rec, nil
}

func decode(data []byte) (*theme.Record, error) {
	var rec theme.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

var errNothingStored = errors.New("no theme record stored")
