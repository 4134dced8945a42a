package persistence

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// TrackerCallbackName is the query callback that feeds session identity maps
const TrackerCallbackName = "queryspec:tracker"

type trackerKey struct{}

type noTrackingKey struct{}

func withTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

func trackerFrom(ctx context.Context) *Tracker {
	if ctx == nil {
		return nil
	}
	t, _ := ctx.Value(trackerKey{}).(*Tracker)
	return t
}

// NoTracking keeps the results of q, including preloaded associations, out
// of the session identity map
func NoTracking(q *gorm.DB) *gorm.DB {
	return q.WithContext(context.WithValue(q.Statement.Context, noTrackingKey{}, true))
}

// trackerPlugin is the gorm plugin that hands query results to the tracker
// found in the statement context.
type trackerPlugin struct {
	mu    sync.RWMutex
	types map[reflect.Type]*schema.Schema
	order []any
	cache *sync.Map
}

func newTrackerPlugin() *trackerPlugin {
	return &trackerPlugin{
		types: make(map[reflect.Type]*schema.Schema),
		cache: &sync.Map{},
	}
}

func (p *trackerPlugin) Name() string {
	return TrackerCallbackName
}

func (p *trackerPlugin) Initialize(db *gorm.DB) error {
	return db.Callback().Query().After("gorm:after_query").Register(TrackerCallbackName, p.afterQuery)
}

func (p *trackerPlugin) register(model any, namer schema.Namer) error {
	s, err := schema.Parse(model, p.cache, namer)
	if err != nil {
		return fmt.Errorf("failed to parse model %T: %w", model, err)
	}
	if len(s.PrimaryFields) == 0 {
		return fmt.Errorf("model %s has no primary key", s.Name)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.types[s.ModelType]; ok {
		return nil
	}
	p.types[s.ModelType] = s
	p.order = append(p.order, model)
	return nil
}

func (p *trackerPlugin) models() []any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]any, len(p.order))
	copy(out, p.order)
	return out
}

func (p *trackerPlugin) schemaOf(t reflect.Type) *schema.Schema {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.types[t]
}

func (p *trackerPlugin) afterQuery(db *gorm.DB) {
	if db.Error != nil || db.Statement == nil || db.Statement.Context == nil {
		return
	}
	ctx := db.Statement.Context
	if ctx.Value(noTrackingKey{}) != nil {
		return
	}
	t := trackerFrom(ctx)
	if t == nil || !db.Statement.ReflectValue.IsValid() {
		return
	}
	t.attach(ctx, db.Statement.ReflectValue)
}

// EntryState describes how a tracked entity compares to its snapshot
type EntryState int

const (
	Unchanged EntryState = iota
	Modified
)

func (s EntryState) String() string {
	switch s {
	case Unchanged:
		return "Unchanged"
	case Modified:
		return "Modified"
	default:
		return fmt.Sprintf("EntryState(%d)", int(s))
	}
}

// Entry is one tracked entity instance
type Entry struct {
	key      string
	schema   *schema.Schema
	instance reflect.Value
	snapshot map[string]any
	state    EntryState
}

// Key is the table and primary key identity of the entry
func (e *Entry) Key() string { return e.key }

// Table returns the table the entity was read from
func (e *Entry) Table() string { return e.schema.Table }

// Type returns the entity's Go type
func (e *Entry) Type() reflect.Type { return e.schema.ModelType }

// State returns the state computed by the last DetectChanges or Entry call
func (e *Entry) State() EntryState { return e.state }

// Entity returns a pointer to the tracked instance
func (e *Entry) Entity() any {
	if e.instance.CanAddr() {
		return e.instance.Addr().Interface()
	}
	return e.instance.Interface()
}

// ModifiedColumns lists the columns whose current value differs from the snapshot
func (e *Entry) ModifiedColumns(ctx context.Context) []string {
	return diffColumns(ctx, e.schema, e.instance, e.snapshot)
}

// Tracker is a session identity map: each entity read through a tracked
// query is recorded once under its table and primary key.
type Tracker struct {
	plugin *trackerPlugin

	mu      sync.Mutex
	entries map[string]*Entry
	order   []string
}

func newTracker(p *trackerPlugin) *Tracker {
	return &Tracker{plugin: p, entries: make(map[string]*Entry)}
}

// Count returns the number of distinct tracked entities
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// CountOf returns the number of tracked entities stored in table
func (t *Tracker) CountOf(table string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.entries {
		if e.schema.Table == table {
			n++
		}
	}
	return n
}

// Entries returns tracked entries in the order they were first seen
func (t *Tracker) Entries() []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Entry, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.entries[k])
	}
	return out
}

// Entry looks up the entry with the identity of v. When v is a pointer of
// the entry's type the entry is rebound to it. The state is recomputed.
func (t *Tracker) Entry(v any) (*Entry, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	s := t.plugin.schemaOf(rv.Type())
	if s == nil {
		return nil, false
	}
	ctx := context.Background()
	key, ok := identity(ctx, s, rv)
	if !ok {
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	if rv.CanAddr() && e.schema == s {
		e.instance = rv
	}
	e.state = stateOf(ctx, e)
	return e, true
}

// DetectChanges compares every entry with its snapshot and returns the
// number of modified entries
func (t *Tracker) DetectChanges() int {
	ctx := context.Background()
	t.mu.Lock()
	defer t.mu.Unlock()
	modified := 0
	for _, e := range t.entries {
		e.state = stateOf(ctx, e)
		if e.state == Modified {
			modified++
		}
	}
	return modified
}

// Clear forgets every tracked entity
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]*Entry)
	t.order = nil
}

type visitKey struct {
	typ  reflect.Type
	addr uintptr
}

func (t *Tracker) attach(ctx context.Context, v reflect.Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.walk(ctx, v, make(map[visitKey]struct{}))
}

func (t *Tracker) walk(ctx context.Context, v reflect.Value, visited map[visitKey]struct{}) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			t.walk(ctx, v.Elem(), visited)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			t.walk(ctx, v.Index(i), visited)
		}
	case reflect.Struct:
		s := t.plugin.schemaOf(v.Type())
		if s == nil {
			// projections that carry whole entities, e.g. struct{ Order; City string }
			for i := 0; i < v.NumField(); i++ {
				if v.Type().Field(i).IsExported() {
					t.walk(ctx, v.Field(i), visited)
				}
			}
			return
		}
		if v.CanAddr() {
			k := visitKey{typ: v.Type(), addr: v.Addr().Pointer()}
			if _, ok := visited[k]; ok {
				return
			}
			visited[k] = struct{}{}
		}
		t.track(ctx, s, v)
		for _, rel := range s.Relationships.Relations {
			// gorm also files back-references owned by other schemas here
			if rel.Schema != s || rel.Field == nil {
				continue
			}
			t.walk(ctx, rel.Field.ReflectValueOf(ctx, v), visited)
		}
	}
}

// track records v under its identity. The first snapshot wins; later reads
// of the same row rebind the entry to the newest instance, which is the one
// the caller holds once preloads have been assigned to their owners.
func (t *Tracker) track(ctx context.Context, s *schema.Schema, v reflect.Value) {
	key, ok := identity(ctx, s, v)
	if !ok {
		return
	}
	if e, exists := t.entries[key]; exists {
		if !v.CanAddr() {
			return
		}
		e.instance = v
		if e.schema != s {
			// same row read through another type of its hierarchy
			e.schema = s
			e.snapshot = snapshot(ctx, s, v)
		}
		return
	}
	t.entries[key] = &Entry{
		key:      key,
		schema:   s,
		instance: v,
		snapshot: snapshot(ctx, s, v),
	}
	t.order = append(t.order, key)
}

func identity(ctx context.Context, s *schema.Schema, v reflect.Value) (string, bool) {
	var b strings.Builder
	b.WriteString(s.Table)
	for _, f := range s.PrimaryFields {
		val, zero := f.ValueOf(ctx, v)
		if zero {
			return "", false
		}
		fmt.Fprintf(&b, "|%v", val)
	}
	return b.String(), true
}

func snapshot(ctx context.Context, s *schema.Schema, v reflect.Value) map[string]any {
	out := make(map[string]any, len(s.DBNames))
	for _, name := range s.DBNames {
		f := s.FieldsByDBName[name]
		val, _ := f.ValueOf(ctx, v)
		out[name] = capture(val)
	}
	return out
}

func diffColumns(ctx context.Context, s *schema.Schema, v reflect.Value, snap map[string]any) []string {
	var cols []string
	for _, name := range s.DBNames {
		f := s.FieldsByDBName[name]
		val, _ := f.ValueOf(ctx, v)
		if !reflect.DeepEqual(capture(val), snap[name]) {
			cols = append(cols, name)
		}
	}
	return cols
}

func stateOf(ctx context.Context, e *Entry) EntryState {
	if len(diffColumns(ctx, e.schema, e.instance, e.snapshot)) > 0 {
		return Modified
	}
	return Unchanged
}

// capture copies pointer targets so in-place edits show up as changes
func capture(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return v
	}
	if rv.IsNil() {
		return nil
	}
	return rv.Elem().Interface()
}
