// Package settings keeps the user's preferences and writes the whole object
// back to storage after every update.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/zjregee/crmdesk/internal/models"
	"github.com/zjregee/crmdesk/internal/service/storage"
)

// DefaultKey is the key the browser build kept its settings under.
const DefaultKey = "userSettings"

var (
	ErrUnknownSection = errors.New("unknown settings section")
	ErrInvalidPatch   = errors.New("invalid settings patch")
	ErrStoreClosed    = errors.New("settings store is closed")
)

type Section string

const (
	SectionProfile       Section = "profile"
	SectionAppearance    Section = "appearance"
	SectionNotifications Section = "notifications"
	SectionSecurity      Section = "security"
)

// Defaults returns the settings used when nothing usable is stored.
func Defaults() *models.Settings {
	return &models.Settings{
		Profile: models.ProfileSettings{
			TimeZone: "UTC",
			Language: "English",
		},
		Appearance: models.AppearanceSettings{
			Theme:       "light",
			ColorScheme: "blue",
			Density:     "comfortable",
		},
		Notifications: models.NotificationSettings{
			Email:         true,
			Push:          true,
			InApp:         true,
			NewCustomer:   true,
			TaskReminders: true,
			SystemUpdates: true,
		},
		Security: models.SecuritySettings{
			SessionTimeout: 30,
		},
	}
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

type Store struct {
	backend storage.Backend
	key     string
	logger  zerolog.Logger

	mu      sync.RWMutex
	current *models.Settings
	loaded  bool
	closed  bool
}

func NewStore(backend storage.Backend, key string, opts ...Option) *Store {
	if key == "" {
		key = DefaultKey
	}

	s := &Store{
		backend: backend,
		key:     key,
		logger:  zerolog.Nop(),
		current: Defaults(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) Key() string {
	return s.key
}

// Load reads the stored settings. Missing or unreadable values fall back to
// the defaults; fields absent from a stored object keep their default.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) {
	s.loaded = true
	s.current = Defaults()

	data, err := s.backend.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debug().Str("key", s.key).Msg("no stored settings, using defaults")
		return
	case err != nil:
		s.logger.Warn().Err(err).Str("key", s.key).Msg("failed to read settings, using defaults")
		return
	case !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject():
		s.logger.Warn().Str("key", s.key).Msg("stored settings are not an object, using defaults")
		return
	}

	loaded := Defaults()
	if err := json.Unmarshal(data, loaded); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("stored settings unusable, using defaults")
		return
	}
	s.current = loaded
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() *models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded && !s.closed {
		s.loadLocked(context.Background())
	}
	return s.current.Clone()
}

func (s *Store) UpdateProfile(ctx context.Context, patch map[string]any) (*models.Settings, error) {
	return s.Update(ctx, SectionProfile, patch)
}

func (s *Store) UpdateAppearance(ctx context.Context, patch map[string]any) (*models.Settings, error) {
	return s.Update(ctx, SectionAppearance, patch)
}

func (s *Store) UpdateNotifications(ctx context.Context, patch map[string]any) (*models.Settings, error) {
	return s.Update(ctx, SectionNotifications, patch)
}

func (s *Store) UpdateSecurity(ctx context.Context, patch map[string]any) (*models.Settings, error) {
	return s.Update(ctx, SectionSecurity, patch)
}

// Update merges patch into one section and persists the whole object. Keys
// the section does not have, or values of the wrong type, reject the patch
// and leave the settings unchanged.
func (s *Store) Update(ctx context.Context, section Section, patch map[string]any) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if !s.loaded {
		s.loadLocked(ctx)
	}

	next := s.current.Clone()
	target, err := sectionOf(next, section)
	if err != nil {
		return nil, err
	}
	if err := mergePatch(target, patch); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPatch, section, err)
	}

	s.current = next
	if err := s.commitLocked(ctx); err != nil {
		return nil, err
	}

	return s.current.Clone(), nil
}

// Reset drops the in-memory settings and reloads what is stored.
func (s *Store) Reset(ctx context.Context) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	s.loadLocked(ctx)
	return s.current.Clone(), nil
}

// Close disposes the store. The backend is owned by the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func (s *Store) commitLocked(ctx context.Context) error {
	data, err := json.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := s.backend.Put(ctx, s.key, data); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("failed to persist settings")
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

func sectionOf(settings *models.Settings, section Section) (any, error) {
	switch section {
	case SectionProfile:
		return &settings.Profile, nil
	case SectionAppearance:
		return &settings.Appearance, nil
	case SectionNotifications:
		return &settings.Notifications, nil
	case SectionSecurity:
		return &settings.Security, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
}

// mergePatch decodes patch over target, so only the keys present change.
func mergePatch(target any, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
