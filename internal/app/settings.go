package app

import (
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/zjregee/crmdesk/internal/models"
	"github.com/zjregee/crmdesk/internal/service/settings"
)

// SettingsChangedEvent carries the full settings after every update or reset.
const SettingsChangedEvent = "settings:changed"

func (a *App) settingsStore() (*settings.Store, error) {
	if a.inbox == nil || a.inbox.Settings() == nil {
		return nil, fmt.Errorf("settings are not available")
	}
	return a.inbox.Settings(), nil
}

func (a *App) GetSettings() (*models.Settings, error) {
	store, err := a.settingsStore()
	if err != nil {
		return nil, err
	}
	return store.Settings(), nil
}

func (a *App) UpdateProfile(patch map[string]any) (*models.Settings, error) {
	return a.updateSettings(settings.SectionProfile, patch)
}

// UpdateAppearance also carries theme changes; the frontend applies the theme
// when it receives SettingsChangedEvent.
func (a *App) UpdateAppearance(patch map[string]any) (*models.Settings, error) {
	return a.updateSettings(settings.SectionAppearance, patch)
}

func (a *App) UpdateNotifications(patch map[string]any) (*models.Settings, error) {
	return a.updateSettings(settings.SectionNotifications, patch)
}

func (a *App) UpdateSecurity(patch map[string]any) (*models.Settings, error) {
	return a.updateSettings(settings.SectionSecurity, patch)
}

func (a *App) ResetSettings() (*models.Settings, error) {
	store, err := a.settingsStore()
	if err != nil {
		return nil, err
	}

	current, err := store.Reset(a.requestContext())
	if err != nil {
		return nil, err
	}

	a.emitSettings(current)
	return current, nil
}

func (a *App) updateSettings(section settings.Section, patch map[string]any) (*models.Settings, error) {
	store, err := a.settingsStore()
	if err != nil {
		return nil, err
	}

	current, err := store.Update(a.requestContext(), section, patch)
	if err != nil {
		a.logger.Warn().Err(err).Str("section", string(section)).Msg("settings update failed")
		return nil, err
	}

	a.emitSettings(current)
	return current, nil
}

func (a *App) emitSettings(current *models.Settings) {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()

	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, SettingsChangedEvent, current)
}
