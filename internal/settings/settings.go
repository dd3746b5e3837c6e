// Package settings stores the purge settings record and exposes the typed
// snapshot the purge cycle reads once per run.
//
// The record is a flat mapping with three recognised keys:
//
//	days_inactive  int  1..365, default 30
//	send_emails    bool default true
//	notify_admin   bool default true
//
// Values are clamped and coerced on write, unknown keys are rejected and
// missing keys fall back to defaults on read.
package settings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aatumaykin/subpurge/internal/logger"
)

// Recognised keys.
const (
	KeyDaysInactive = "days_inactive"
	KeySendEmails   = "send_emails"
	KeyNotifyAdmin  = "notify_admin"
)

const (
	DefaultDaysInactive = 30
	MinDaysInactive     = 1
	MaxDaysInactive     = 365
)

// ErrUnknownKey is returned for keys outside the recognised set.
var ErrUnknownKey = errors.New("unknown setting")

// Settings is the typed snapshot of the record.
type Settings struct {
	DaysInactive int  `json:"days_inactive" yaml:"days_inactive"`
	SendEmails   bool `json:"send_emails" yaml:"send_emails"`
	NotifyAdmin  bool `json:"notify_admin" yaml:"notify_admin"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() Settings {
	return Settings{DaysInactive: DefaultDaysInactive, SendEmails: true, NotifyAdmin: true}
}

// Map returns the record form of s.
func (s Settings) Map() map[string]any {
	return map[string]any{
		KeyDaysInactive: s.DaysInactive,
		KeySendEmails:   s.SendEmails,
		KeyNotifyAdmin:  s.NotifyAdmin,
	}
}

// Keys returns the recognised keys in display order.
func Keys() []string {
	return []string{KeyDaysInactive, KeySendEmails, KeyNotifyAdmin}
}

// IsKnown reports whether key is recognised.
func IsKnown(key string) bool {
	return slices.Contains(Keys(), key)
}

func defaultFor(key string) any {
	return Defaults().Map()[key]
}

// SaveOptions carries out-of-band persistence flags.
type SaveOptions struct {
	// Autoload asks the backend to preload the record with unrelated data.
	// The accessor always saves with Autoload=false.
	Autoload bool
}

// Backend persists the whole record. Load returns (nil, nil) when nothing is
// stored; anything other than a string-keyed mapping is treated as empty.
type Backend interface {
	Load(ctx context.Context) (any, error)
	Save(ctx context.Context, record map[string]any, opts SaveOptions) error
}

// Accessor is the read/write entry point for the settings record.
type Accessor struct {
	backend Backend
	logger  *logger.Logger

	// сериализует read-modify-write в Update
	mu sync.Mutex
}

// NewAccessor creates an accessor over backend.
func NewAccessor(backend Backend, log *logger.Logger) *Accessor {
	return &Accessor{backend: backend, logger: log}
}

// record loads the stored mapping. Missing, malformed or unreadable records
// come back as an empty mapping.
func (a *Accessor) record(ctx context.Context) map[string]any {
	raw, err := a.backend.Load(ctx)
	if err != nil {
		a.logger.WarnCtx(ctx, "settings record unreadable, using defaults",
			logger.Field{Key: "error", Value: err.Error()})
		return map[string]any{}
	}
	m, ok := asMap(raw)
	if !ok {
		if raw != nil {
			a.logger.WarnCtx(ctx, "settings record is not a mapping, using defaults",
				logger.Field{Key: "type", Value: fmt.Sprintf("%T", raw)})
		}
		return map[string]any{}
	}
	return m
}

// Get returns the stored value for key, or def when the key is absent or
// the record is absent or malformed.
func (a *Accessor) Get(ctx context.Context, key string, def any) any {
	if v, ok := a.record(ctx)[key]; ok && v != nil {
		return v
	}
	return def
}

// Load returns the typed snapshot: the stored record sanitised with defaults
// for missing keys.
func (a *Accessor) Load(ctx context.Context) Settings {
	return fromMap(Sanitize(a.record(ctx)))
}

// Update merges value under key and persists the whole mapping. Other keys are
// left as stored. Returns false for unknown keys and when persistence fails,
// in which case the stored record is unchanged.
func (a *Accessor) Update(ctx context.Context, key string, value any) bool {
	if !IsKnown(key) {
		a.logger.WarnCtx(ctx, "rejected unknown setting", logger.Field{Key: "key", Value: key})
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	merged := maps.Clone(a.record(ctx))
	merged[key] = sanitizeValue(key, value)

	if err := a.backend.Save(ctx, merged, SaveOptions{Autoload: false}); err != nil {
		a.logger.ErrorCtx(ctx, "failed to persist settings", err, logger.Field{Key: "key", Value: key})
		return false
	}

	a.logger.InfoCtx(ctx, "setting updated",
		logger.Field{Key: "key", Value: key},
		logger.Field{Key: "value", Value: merged[key]})
	return true
}

// UpdateAll sanitises a full submission (form or API body) and persists it.
// On failure the previously stored settings are returned with false.
func (a *Accessor) UpdateAll(ctx context.Context, input any) (Settings, bool) {
	clean := Sanitize(input)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.backend.Save(ctx, clean, SaveOptions{Autoload: false}); err != nil {
		a.logger.ErrorCtx(ctx, "failed to persist settings", err)
		return fromMap(Sanitize(a.record(ctx))), false
	}
	return fromMap(clean), true
}

func fromMap(m map[string]any) Settings {
	s := Defaults()
	if v, ok := m[KeyDaysInactive].(int); ok {
		s.DaysInactive = v
	}
	if v, ok := m[KeySendEmails].(bool); ok {
		s.SendEmails = v
	}
	if v, ok := m[KeyNotifyAdmin].(bool); ok {
		s.NotifyAdmin = v
	}
	return s
}
