package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjregee/crmdesk/internal/models"
	"github.com/zjregee/crmdesk/internal/service/storage"
)

type failingBackend struct {
	storage.Backend
	putErr error
}

func (b *failingBackend) Put(context.Context, string, []byte) error {
	return b.putErr
}

func stored(t *testing.T, backend storage.Backend) *models.Settings {
	t.Helper()

	data, err := backend.Get(context.Background(), DefaultKey)
	require.NoError(t, err)

	var out models.Settings
	require.NoError(t, json.Unmarshal(data, &out))
	return &out
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	store := NewStore(storage.NewMemoryBackend(), "")
	store.Load(context.Background())

	settings := store.Settings()
	assert.Equal(t, DefaultKey, store.Key())
	assert.Equal(t, Defaults(), settings)
	assert.Equal(t, "light", settings.Appearance.Theme)
	assert.Equal(t, 30, settings.Security.SessionTimeout)
	assert.False(t, settings.Notifications.SMS)
	assert.Nil(t, settings.Security.PasswordLastChanged)
}

func TestLoadFallsBackOnUnreadableValue(t *testing.T) {
	cases := map[string]string{
		"not json":   `{"profile":`,
		"array":      `[1,2]`,
		"wrong type": `{"security":{"sessionTimeout":"soon"}}`,
	}

	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			backend := storage.NewMemoryBackend()
			require.NoError(t, backend.Put(context.Background(), DefaultKey, []byte(blob)))

			store := NewStore(backend, "")
			store.Load(context.Background())
			assert.Equal(t, Defaults(), store.Settings())
		})
	}
}

func TestLoadFillsMissingFieldsWithDefaults(t *testing.T) {
	backend := storage.NewMemoryBackend()
	blob := `{"profile":{"firstName":"Sam"},"appearance":{"theme":"dark"}}`
	require.NoError(t, backend.Put(context.Background(), DefaultKey, []byte(blob)))

	store := NewStore(backend, "")
	store.Load(context.Background())

	settings := store.Settings()
	assert.Equal(t, "Sam", settings.Profile.FirstName)
	assert.Equal(t, "UTC", settings.Profile.TimeZone)
	assert.Equal(t, "dark", settings.Appearance.Theme)
	assert.Equal(t, "blue", settings.Appearance.ColorScheme)
	assert.True(t, settings.Notifications.Email)
}

func TestUpdateMergesSectionAndPersists(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := NewStore(backend, "")
	store.Load(ctx)

	settings, err := store.UpdateProfile(ctx, map[string]any{
		"firstName": "Jordan",
		"jobTitle":  "Account Manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jordan", settings.Profile.FirstName)
	assert.Equal(t, "Account Manager", settings.Profile.JobTitle)
	assert.Equal(t, "English", settings.Profile.Language)

	_, err = store.UpdateAppearance(ctx, map[string]any{"theme": "dark", "sidebarCollapsed": true})
	require.NoError(t, err)
	_, err = store.UpdateNotifications(ctx, map[string]any{"sms": true, "email": false})
	require.NoError(t, err)

	changed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	_, err = store.UpdateSecurity(ctx, map[string]any{
		"sessionTimeout":      float64(45),
		"passwordLastChanged": changed.Format(time.RFC3339),
	})
	require.NoError(t, err)

	persisted := stored(t, backend)
	assert.Equal(t, "Jordan", persisted.Profile.FirstName)
	assert.Equal(t, "dark", persisted.Appearance.Theme)
	assert.True(t, persisted.Appearance.SidebarCollapsed)
	assert.True(t, persisted.Notifications.SMS)
	assert.False(t, persisted.Notifications.Email)
	assert.True(t, persisted.Notifications.Push)
	assert.Equal(t, 45, persisted.Security.SessionTimeout)
	require.NotNil(t, persisted.Security.PasswordLastChanged)
	assert.True(t, changed.Equal(*persisted.Security.PasswordLastChanged))

	reopened := NewStore(backend, "")
	reopened.Load(ctx)
	assert.Equal(t, persisted, reopened.Settings())
}

func TestUpdateRejectsBadPatch(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := NewStore(backend, "")
	store.Load(ctx)

	_, err := store.UpdateProfile(ctx, map[string]any{"firstName": "Ok", "nickname": "x"})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = store.UpdateSecurity(ctx, map[string]any{"sessionTimeout": "forever"})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = store.Update(ctx, Section("billing"), map[string]any{"plan": "pro"})
	assert.ErrorIs(t, err, ErrUnknownSection)

	assert.Equal(t, Defaults(), store.Settings())
	_, err = backend.Get(ctx, DefaultKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateLoadsLazily(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, DefaultKey, []byte(`{"appearance":{"theme":"dark"}}`)))

	store := NewStore(backend, "")
	settings, err := store.UpdateProfile(ctx, map[string]any{"lastName": "Lee"})
	require.NoError(t, err)
	assert.Equal(t, "dark", settings.Appearance.Theme)
	assert.Equal(t, "Lee", settings.Profile.LastName)
}

func TestResetReloadsStoredValue(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := NewStore(backend, "")
	store.Load(ctx)

	_, err := store.UpdateAppearance(ctx, map[string]any{"density": "compact"})
	require.NoError(t, err)

	require.NoError(t, backend.Put(ctx, DefaultKey, []byte(`{"appearance":{"colorScheme":"green"}}`)))

	settings, err := store.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "green", settings.Appearance.ColorScheme)
	assert.Equal(t, "comfortable", settings.Appearance.Density)
}

func TestCommitFailureKeepsUpdate(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{Backend: storage.NewMemoryBackend(), putErr: errors.New("disk full")}
	store := NewStore(backend, "")
	store.Load(ctx)

	_, err := store.UpdateAppearance(ctx, map[string]any{"theme": "dark"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPatch)
	assert.Equal(t, "dark", store.Settings().Appearance.Theme)
}

func TestSettingsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryBackend(), "")

	changed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.UpdateSecurity(ctx, map[string]any{"passwordLastChanged": changed})
	require.NoError(t, err)

	settings := store.Settings()
	settings.Profile.FirstName = "mutated"
	*settings.Security.PasswordLastChanged = time.Time{}

	fresh := store.Settings()
	assert.Empty(t, fresh.Profile.FirstName)
	assert.True(t, changed.Equal(*fresh.Security.PasswordLastChanged))
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryBackend(), "")
	require.NoError(t, store.Close())

	_, err := store.UpdateProfile(ctx, map[string]any{"firstName": "x"})
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = store.Reset(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)
}
