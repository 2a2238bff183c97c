// Package registry routes setting lookups and changes to the global store or
// to a workspace's scoped overrides, and persists the affected file.
//
// One Registry is constructed per process and passed to its users. Readers
// share a read lock; every change holds the write lock for its whole
// read-modify-persist sequence, so no reader observes a half-applied change.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/revlauncher/internal/settings"
	"github.com/dshills/revlauncher/internal/settings/notify"
	"github.com/dshills/revlauncher/internal/settings/schema"
	"github.com/dshills/revlauncher/internal/settings/store"
)

// Registry owns the global store and the scoped overrides of every
// registered workspace.
type Registry struct {
	mu sync.RWMutex

	configDir string
	schema    *schema.Schema
	global    *store.Store
	manifest  []ManifestEntry
	scopes    map[int]*scope

	logger   *zap.Logger
	notifier *notify.Notifier
	metrics  *Metrics
}

// scope is a registered workspace whose overrides load on first access.
type scope struct {
	id  int
	dir string

	// mu serializes lazy loading, which may run under the registry read lock.
	mu        sync.Mutex
	overrides *store.Overrides
}

func (s *scope) file() string { return ScopeFile(s.dir) }

// Option configures a Registry.
type Option func(*Registry)

// WithSchema sets the item schema. Defaults to DefaultSchema(nil).
func WithSchema(s *schema.Schema) Option {
	return func(r *Registry) {
		if s != nil {
			r.schema = s
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithNotifier publishes every successful change to n.
func WithNotifier(n *notify.Notifier) Option {
	return func(r *Registry) {
		r.notifier = n
	}
}

// WithMetrics records operation metrics to m.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// Open loads the manifest and the global store from configDir, creating the
// directory and an empty manifest when missing. Scoped overrides are loaded
// lazily on first access.
func Open(configDir string, opts ...Option) (*Registry, error) {
	r := &Registry{
		configDir: configDir,
		scopes:    make(map[int]*scope),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.schema == nil {
		r.schema = DefaultSchema(nil)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, &settings.IOError{Op: "mkdir", Path: configDir, Err: err}
	}

	entries, err := loadManifest(ManifestFile(configDir))
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	r.manifest = entries
	for _, e := range entries {
		if e.ID == GlobalScope {
			continue
		}
		if err := e.validate(); err != nil {
			r.logger.Warn("skipping invalid manifest entry",
				zap.Int("scope", e.ID), zap.String("path", e.Path), zap.Error(err))
			continue
		}
		if _, dup := r.scopes[e.ID]; dup {
			r.logger.Warn("duplicate scope id in manifest, keeping first",
				zap.Int("scope", e.ID), zap.String("path", e.Path))
			continue
		}
		r.scopes[e.ID] = &scope{id: e.ID, dir: e.Path}
	}

	global, err := r.readGlobal()
	if err != nil {
		return nil, err
	}
	r.global = global

	r.logger.Debug("settings registry opened",
		zap.String("config_dir", configDir),
		zap.Int("scopes", len(r.scopes)))
	return r, nil
}

func (r *Registry) readGlobal() (*store.Store, error) {
	path := GlobalFile(r.configDir)
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if data == nil {
		r.logger.Debug("no global settings file, initializing defaults", zap.String("path", path))
	}
	st, err := store.Read(r.schema, data)
	if err != nil {
		return nil, annotate(err, path)
	}
	return st, nil
}

// ConfigDir returns the directory holding the global file and manifest.
func (r *Registry) ConfigDir() string { return r.configDir }

// Schema returns the item schema shared by all stores.
func (r *Registry) Schema() *schema.Schema { return r.schema }

// GetValue returns the effective value of an item. GlobalScope reads the
// global store; any other id reads that workspace's overrides, falling back
// to the global store for inherited fields.
func (r *Registry) GetValue(scopeID int, name string) (value json.RawMessage, err error) {
	defer func() { r.metrics.observeGet(scopeID, err) }()

	r.mu.RLock()
	defer r.mu.RUnlock()

	if scopeID == GlobalScope {
		return r.global.Get(name)
	}

	sc, ok := r.scopes[scopeID]
	if !ok {
		return nil, settings.ScopeNotFound(scopeID)
	}
	o, err := r.loadScope(sc)
	if err != nil {
		return nil, err
	}
	return o.Get(name, r.global)
}

// ChangeValue applies a change request and persists the touched file: the
// global file for GlobalScope, otherwise only the scope's file. If
// persisting fails the in-memory state is restored.
func (r *Registry) ChangeValue(scopeID int, name string, values []string) (err error) {
	defer func() { r.metrics.observeChange(scopeID, err) }()

	change, err := r.changeValue(scopeID, name, values)
	if err != nil {
		return err
	}
	r.publish(change)
	return nil
}

func (r *Registry) changeValue(scopeID int, name string, values []string) (notify.Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if scopeID == GlobalScope {
		return r.changeGlobal(name, values)
	}

	sc, ok := r.scopes[scopeID]
	if !ok {
		return notify.Change{}, settings.ScopeNotFound(scopeID)
	}
	return r.changeScope(sc, name, values)
}

func (r *Registry) changeGlobal(name string, values []string) (notify.Change, error) {
	before, err := r.global.Write()
	if err != nil {
		return notify.Change{}, err
	}

	if err := r.global.Change(name, values); err != nil {
		return notify.Change{}, err
	}

	path := GlobalFile(r.configDir)
	if err := r.persist(path, r.global.Write); err != nil {
		restored, rerr := store.Read(r.schema, before)
		if rerr != nil {
			r.logger.Error("restore global settings", zap.Error(rerr))
		} else {
			r.global = restored
		}
		return notify.Change{}, err
	}

	r.logger.Debug("global setting changed", zap.String("item", name), zap.Strings("values", values))
	return r.event(GlobalScope, name, notify.ChangeSet, values, func() (json.RawMessage, error) {
		return r.global.Get(name)
	}), nil
}

func (r *Registry) changeScope(sc *scope, name string, values []string) (notify.Change, error) {
	o, err := r.loadScope(sc)
	if err != nil {
		return notify.Change{}, err
	}

	field, err := o.Field(name)
	if err != nil {
		return notify.Change{}, err
	}
	before, err := o.Write()
	if err != nil {
		return notify.Change{}, err
	}

	if err := o.Change(name, values, r.global); err != nil {
		return notify.Change{}, err
	}

	if err := r.persist(sc.file(), o.Write); err != nil {
		r.restoreScope(sc, before)
		return notify.Change{}, err
	}

	typ := notify.ChangeSet
	if field.State() == store.Inherited {
		typ = notify.ChangeMaterialize
		r.metrics.observeMaterialize()
		r.logger.Debug("scoped setting materialized",
			zap.Int("scope", sc.id), zap.String("item", name))
	}
	return r.event(sc.id, name, typ, values, func() (json.RawMessage, error) {
		return o.Get(name, r.global)
	}), nil
}

// Reset drops a workspace's override for an item so it follows the global
// store again, and persists the scope file. Resetting a global item is not
// supported.
func (r *Registry) Reset(scopeID int, name string) error {
	change, removed, err := r.reset(scopeID, name)
	if err != nil || !removed {
		return err
	}
	r.publish(change)
	return nil
}

func (r *Registry) reset(scopeID int, name string) (notify.Change, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if scopeID == GlobalScope {
		return notify.Change{}, false, fmt.Errorf("%w: global items cannot be reset", settings.ErrUnsupported)
	}
	sc, ok := r.scopes[scopeID]
	if !ok {
		return notify.Change{}, false, settings.ScopeNotFound(scopeID)
	}
	o, err := r.loadScope(sc)
	if err != nil {
		return notify.Change{}, false, err
	}

	before, err := o.Write()
	if err != nil {
		return notify.Change{}, false, err
	}
	removed, err := o.Reset(name)
	if err != nil || !removed {
		return notify.Change{}, false, err
	}

	if err := r.persist(sc.file(), o.Write); err != nil {
		r.restoreScope(sc, before)
		return notify.Change{}, false, err
	}

	return r.event(sc.id, name, notify.ChangeReset, nil, func() (json.RawMessage, error) {
		return o.Get(name, r.global)
	}), true, nil
}

// Register adds a workspace scope backed by dir and persists the manifest.
func (r *Registry) Register(id int, dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == GlobalScope {
		return fmt.Errorf("scope id %d is reserved for the global store", GlobalScope)
	}
	entry := ManifestEntry{ID: id, Path: dir}
	if err := entry.validate(); err != nil {
		return err
	}
	if _, exists := r.scopes[id]; exists {
		return fmt.Errorf("scope %d already registered", id)
	}

	entries := append(append([]ManifestEntry(nil), r.manifest...), entry)
	if err := saveManifest(ManifestFile(r.configDir), entries); err != nil {
		return err
	}

	r.manifest = entries
	r.scopes[id] = &scope{id: id, dir: dir}
	r.logger.Info("scope registered", zap.Int("scope", id), zap.String("path", dir))
	return nil
}

// Scopes returns the registered workspace scopes ordered by id.
func (r *Registry) Scopes() []ManifestEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ManifestEntry, 0, len(r.scopes))
	for _, sc := range r.scopes {
		result = append(result, ManifestEntry{ID: sc.id, Path: sc.dir})
	}
	sortEntries(result)
	return result
}

// Overridden reports whether a workspace holds an explicit override for name.
func (r *Registry) Overridden(scopeID int, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if scopeID == GlobalScope {
		_, err := r.schema.Lookup(name)
		return false, err
	}
	sc, ok := r.scopes[scopeID]
	if !ok {
		return false, settings.ScopeNotFound(scopeID)
	}
	o, err := r.loadScope(sc)
	if err != nil {
		return false, err
	}
	f, err := o.Field(name)
	if err != nil {
		return false, err
	}
	return f.State() == store.Overridden, nil
}

// Preload loads every scope's overrides concurrently and returns the first
// failure.
func (r *Registry) Preload() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var g errgroup.Group
	for _, sc := range r.scopes {
		sc := sc
		g.Go(func() error {
			_, err := r.loadScope(sc)
			return err
		})
	}
	return g.Wait()
}

// loadScope returns the scope's overrides, reading them on first access.
// A missing file yields all-inherited overrides. Failed loads are not cached.
func (r *Registry) loadScope(sc *scope) (*store.Overrides, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.overrides != nil {
		return sc.overrides, nil
	}

	path := sc.file()
	data, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("scope %d: %w", sc.id, err)
	}
	o, err := store.ReadOverrides(r.schema, data)
	if err != nil {
		return nil, fmt.Errorf("scope %d: %w", sc.id, annotate(err, path))
	}

	sc.overrides = o
	r.logger.Debug("scope loaded",
		zap.Int("scope", sc.id), zap.String("path", path), zap.Bool("exists", data != nil))
	return o, nil
}

func (r *Registry) restoreScope(sc *scope, before json.RawMessage) {
	restored, err := store.ReadOverrides(r.schema, before)
	if err != nil {
		r.logger.Error("restore scoped settings", zap.Int("scope", sc.id), zap.Error(err))
		return
	}
	sc.mu.Lock()
	sc.overrides = restored
	sc.mu.Unlock()
}

// persist writes the document produced by write to path.
func (r *Registry) persist(path string, write func() (json.RawMessage, error)) error {
	doc, err := write()
	if err != nil {
		return err
	}
	if err := writeFile(path, doc); err != nil {
		r.logger.Warn("persist settings", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

// event builds a change notification. It must be called with the write lock
// held so value observes the state just persisted.
func (r *Registry) event(scopeID int, name string, typ notify.ChangeType, values []string, value func() (json.RawMessage, error)) notify.Change {
	change := notify.Change{
		Scope:  scopeID,
		Item:   name,
		Type:   typ,
		Values: values,
	}
	if r.notifier == nil {
		return change
	}
	v, err := value()
	if err != nil {
		r.logger.Warn("resolve value for notification", zap.String("item", name), zap.Error(err))
	}
	change.Value = v
	return change
}

// publish delivers a change outside the registry lock so observers may call
// back into the registry.
func (r *Registry) publish(change notify.Change) {
	if r.notifier != nil {
		r.notifier.Publish(change)
	}
}

// annotate fills in the file path of a parse error.
func annotate(err error, path string) error {
	var perr *settings.ParseError
	if errors.As(err, &perr) && perr.Path == "" {
		perr.Path = path
	}
	return err
}
