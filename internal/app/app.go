package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/zjregee/crmdesk/internal/service"
)

// MessagesChangedEvent is emitted to the frontend after every inbox mutation.
const MessagesChangedEvent = "messages:changed"

type App struct {
	ctx    context.Context
	ctxMu  sync.RWMutex
	inbox  *service.InboxService
	logger zerolog.Logger
	now    func() time.Time
}

func NewApp(inbox *service.InboxService, logger zerolog.Logger) *App {
	return &App{
		inbox:  inbox,
		logger: logger,
		now:    time.Now,
	}
}

func (a *App) Startup(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()
}

// Shutdown disposes the inbox when the window closes.
func (a *App) Shutdown(_ context.Context) {
	if a.inbox == nil {
		return
	}

	if err := a.inbox.Close(); err != nil {
		a.logger.Error().Err(err).Msg("failed to close inbox")
	}
}

func (a *App) requestContext() context.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()

	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func (a *App) emitChanged() {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()

	// no window to notify before Startup
	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, MessagesChangedEvent, map[string]int{
		"unreadTotal": a.inbox.UnreadTotal(),
	})
}
