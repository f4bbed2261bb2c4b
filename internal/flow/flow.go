// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

// Package flow implements the credential flow: the initial setup step that
// creates the Oura Ring config entry and the options step that edits the
// stored access token afterwards.
package flow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ringsense/ringsense/internal/store"
	rserr "github.com/ringsense/ringsense/pkg/errors"
)

const (
	// Domain is the integration domain every entry is stored under.
	Domain = "oura_ring"
	// Title is the title given to entries created by the setup step.
	Title = "Oura Ring"
	// FieldAccessToken is the only field either step collects.
	FieldAccessToken = "access_token"

	StepUser = "user"
	StepInit = "init"
)

// ResultType says whether a step wants input or has finished.
type ResultType string

const (
	ResultTypeForm        ResultType = "form"
	ResultTypeCreateEntry ResultType = "create_entry"
)

// Field describes one form field.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Default  string `json:"default,omitempty"`
	Secret   bool   `json:"secret,omitempty"`
}

// Input is a submitted form. A nil AccessToken means the key was absent.
type Input struct {
	AccessToken *string
}

// Result is what a step hands back to the caller: either a form to render
// or the data that was persisted.
type Result struct {
	Type    ResultType        `json:"type"`
	StepID  string            `json:"step_id,omitempty"`
	Fields  []Field           `json:"fields,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Title   string            `json:"title"`
	Data    map[string]string `json:"data,omitempty"`
	EntryID string            `json:"entry_id,omitempty"`
}

// EventKind identifies an entry change.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
)

// Event is delivered to listeners after a successful write. Seq increases
// with every write, so a listener can drop an event that arrives after a
// newer one for the same entry.
type Event struct {
	Kind  EventKind
	Entry *store.ConfigEntry
	Seq   uint64
}

// Listener observes entry changes. Listeners run synchronously after the
// write has been committed.
type Listener func(ctx context.Context, ev Event)

// Manager runs flow steps against the config entry store.
type Manager struct {
	entries store.EntryStore
	audit   store.AuditStore
	logger  *slog.Logger
	nowFunc func() time.Time

	// mu serialises writes so setup never races itself into two entries.
	mu        sync.Mutex
	seq       uint64
	listeners []Listener
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithNowFunc overrides the time source (for testing).
func WithNowFunc(fn func() time.Time) Option {
	return func(m *Manager) { m.nowFunc = fn }
}

// NewManager returns a Manager persisting to st.
func NewManager(st store.Store, opts ...Option) *Manager {
	m := &Manager{
		entries: st.Entries(),
		audit:   st.AuditLog(),
		logger:  slog.Default(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnEntryUpdated registers a listener for entry changes.
func (m *Manager) OnEntryUpdated(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// StartSetup runs the user step. Without input it returns the empty form.
// With input the token is accepted as-is and stored under Title; if an
// entry for the domain already exists its data is overwritten and any
// options-level token is cleared, so the submitted token takes effect.
func (m *Manager) StartSetup(ctx context.Context, in *Input) (*Result, error) {
	if in == nil {
		return &Result{
			Type:   ResultTypeForm,
			StepID: StepUser,
			Fields: []Field{tokenField("")},
		}, nil
	}
	if in.AccessToken == nil {
		return nil, missingToken()
	}

	data := map[string]string{FieldAccessToken: *in.AccessToken}

	m.mu.Lock()
	entry, kind, err := m.upsert(ctx, data)
	seq := m.nextSeq()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.notify(ctx, Event{Kind: kind, Entry: entry, Seq: seq})
	return &Result{
		Type:    ResultTypeCreateEntry,
		Title:   Title,
		Data:    data,
		EntryID: entry.ID,
	}, nil
}

func (m *Manager) upsert(ctx context.Context, data map[string]string) (*store.ConfigEntry, EventKind, error) {
	existing, err := m.entries.GetByDomain(ctx, Domain)
	switch {
	case err == nil:
		if err := m.entries.ReplaceData(ctx, existing.ID, Title, data); err != nil {
			return nil, "", err
		}
		m.appendAudit(ctx, store.AuditActionEntryUpdateData, existing.ID, map[string]any{
			"title":           Title,
			"options_cleared": len(existing.Options) > 0,
		})
		entry, err := m.entries.Get(ctx, existing.ID)
		return entry, EventUpdated, err
	case !rserr.IsNotFound(err):
		return nil, "", err
	}

	entry := &store.ConfigEntry{
		ID:        uuid.New().String(),
		Domain:    Domain,
		Title:     Title,
		Data:      data,
		Options:   map[string]string{},
		CreatedAt: m.nowFunc(),
	}
	if err := m.entries.Create(ctx, entry); err != nil {
		return nil, "", err
	}
	m.appendAudit(ctx, store.AuditActionEntryCreate, entry.ID, map[string]any{"title": Title})
	return entry, EventCreated, nil
}

// StartOptionsEdit runs the init step of the options flow for entryID.
// Without input it returns the form pre-filled with the stored token. With
// input it overwrites the entry's options; the result title is empty.
func (m *Manager) StartOptionsEdit(ctx context.Context, entryID string, in *Input) (*Result, error) {
	entry, err := m.entries.Get(ctx, entryID)
	if err != nil {
		if rserr.IsNotFound(err) {
			return nil, rserr.Wrap(err, rserr.CodeFlowEntryNotFound, "options for unknown entry", rserr.FieldEntryID(entryID))
		}
		return nil, err
	}

	if in == nil {
		return &Result{
			Type:    ResultTypeForm,
			StepID:  StepInit,
			Fields:  []Field{tokenField(CurrentToken(entry))},
			EntryID: entry.ID,
		}, nil
	}
	if in.AccessToken == nil {
		return nil, missingToken()
	}

	options := map[string]string{FieldAccessToken: *in.AccessToken}

	m.mu.Lock()
	err = m.entries.UpdateOptions(ctx, entry.ID, options)
	if err == nil {
		m.appendAudit(ctx, store.AuditActionEntryUpdateOptions, entry.ID, nil)
		entry, err = m.entries.Get(ctx, entry.ID)
	}
	seq := m.nextSeq()
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.notify(ctx, Event{Kind: EventUpdated, Entry: entry, Seq: seq})
	return &Result{
		Type:    ResultTypeCreateEntry,
		Title:   "",
		Data:    options,
		EntryID: entry.ID,
	}, nil
}

// RemoveEntry deletes an entry and tells listeners to tear down its entities.
func (m *Manager) RemoveEntry(ctx context.Context, entryID string) error {
	m.mu.Lock()
	entry, err := m.entries.Get(ctx, entryID)
	if err == nil {
		err = m.entries.Delete(ctx, entryID)
	}
	if err == nil {
		m.appendAudit(ctx, store.AuditActionEntryDelete, entryID, nil)
	}
	seq := m.nextSeq()
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.notify(ctx, Event{Kind: EventRemoved, Entry: entry, Seq: seq})
	return nil
}

// CurrentToken returns the token in effect for entry: the options value
// when one has been set, otherwise the setup value.
func CurrentToken(entry *store.ConfigEntry) string {
	if tok, ok := entry.Options[FieldAccessToken]; ok {
		return tok
	}
	return entry.Data[FieldAccessToken]
}

// InputFromMap converts a decoded form body into an Input. The
// access_token key must be present and hold a string; an empty string is
// accepted.
func InputFromMap(values map[string]any) (*Input, error) {
	raw, ok := values[FieldAccessToken]
	if !ok {
		return nil, missingToken()
	}
	tok, ok := raw.(string)
	if !ok {
		return nil, rserr.Errorf(rserr.CodeFlowInputInvalid, "%s must be a string, got %T", FieldAccessToken, raw)
	}
	return &Input{AccessToken: &tok}, nil
}

func tokenField(def string) Field {
	return Field{Name: FieldAccessToken, Type: "string", Required: true, Default: def, Secret: true}
}

func missingToken() error {
	return rserr.New(rserr.CodeFlowInputInvalid, "access_token is required", rserr.Field("key", FieldAccessToken))
}

// nextSeq must be called with m.mu held.
func (m *Manager) nextSeq() uint64 {
	m.seq++
	return m.seq
}

func (m *Manager) notify(ctx context.Context, ev Event) {
	m.mu.Lock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(ctx, ev)
	}
}

// appendAudit records a flow action. Audit failures are logged and never
// fail the write that triggered them.
func (m *Manager) appendAudit(ctx context.Context, action, entryID string, details map[string]any) {
	entry := &store.AuditEntry{
		ID:        uuid.New().String(),
		Timestamp: m.nowFunc(),
		Action:    action,
		Actor:     ActorFrom(ctx),
		EntryID:   entryID,
		Details:   details,
		Result:    "ok",
	}
	if err := m.audit.Append(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "audit append failed",
			"action", action,
			"entry_id", entryID,
			"error", err,
		)
	}
}
