package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zjregee/crmdesk/internal/config"
	"github.com/zjregee/crmdesk/internal/models"
	"github.com/zjregee/crmdesk/internal/service/customers"
	"github.com/zjregee/crmdesk/internal/service/settings"
	"github.com/zjregee/crmdesk/internal/service/storage"
	"github.com/zjregee/crmdesk/internal/service/threads"
)

var (
	ErrCustomerRequired = errors.New("please select a customer")
	ErrSubjectRequired  = errors.New("please enter a subject")
	ErrMessageRequired  = errors.New("please enter a message")
)

type InboxService struct {
	store     *threads.Store
	settings  *settings.Store
	directory *customers.Directory
	backend   storage.Backend
	logger    zerolog.Logger
}

type InboxOption func(*InboxService)

// WithSettings attaches the user settings kept next to the inbox.
func WithSettings(store *settings.Store) InboxOption {
	return func(s *InboxService) {
		s.settings = store
	}
}

func NewInboxService(store *threads.Store, directory *customers.Directory, logger zerolog.Logger, opts ...InboxOption) *InboxService {
	s := &InboxService{
		store:     store,
		directory: directory,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open wires the configured storage backend, the thread and settings stores
// and the customer directory, and loads them.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*InboxService, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	directory, err := customers.LoadDirectory(cfg.Customers.Path)
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(ctx, storage.Options{
		Driver:   cfg.Storage.Driver,
		Path:     cfg.Storage.Path,
		RedisURL: cfg.Storage.RedisURL,
	})
	if err != nil {
		return nil, err
	}

	threadsLogger := logger.With().Str("component", "threads").Logger()
	repo := storage.NewThreadRepository(backend, cfg.Storage.Key, storage.WithLogger(threadsLogger))
	store := threads.NewStore(repo, threads.WithLogger(threadsLogger))
	store.Load(ctx)

	prefs := settings.NewStore(backend, cfg.Storage.SettingsKey,
		settings.WithLogger(logger.With().Str("component", "settings").Logger()))
	prefs.Load(ctx)

	logger.Info().
		Str("driver", cfg.Storage.Driver).
		Str("key", repo.Key()).
		Str("settings_key", prefs.Key()).
		Int("threads", len(store.Threads())).
		Msg("inbox opened")

	svc := NewInboxService(store, directory, logger, WithSettings(prefs))
	svc.backend = backend
	return svc, nil
}

// Close disposes the stores and then the backend they were writing to.
func (s *InboxService) Close() error {
	err := s.store.Close()
	if s.settings != nil {
		if cerr := s.settings.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if s.backend != nil {
		if cerr := s.backend.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Settings returns the settings store, or nil when none is attached.
func (s *InboxService) Settings() *settings.Store {
	return s.settings
}

func (s *InboxService) Customers() []*models.Customer {
	return s.directory.List()
}

func (s *InboxService) SelectedThreadID() string {
	return s.store.SelectedThreadID()
}

func (s *InboxService) UnreadTotal() int {
	return s.store.UnreadTotal()
}

// ListThreads returns the inbox rows matching filter, in collection order.
func (s *InboxService) ListThreads(filter models.ThreadFilter) []*models.ThreadSummary {
	all := s.store.Threads()
	selected := s.store.SelectedThreadID()
	term := strings.ToLower(strings.TrimSpace(filter.Search))

	summaries := make([]*models.ThreadSummary, 0, len(all))
	for _, thread := range all {
		if filter.UnreadOnly && thread.UnreadCount == 0 {
			continue
		}
		if term != "" && !s.matches(thread, term) {
			continue
		}

		summary := &models.ThreadSummary{
			ID:           thread.ID,
			CustomerID:   thread.CustomerID,
			CustomerName: s.directory.DisplayName(thread.CustomerID),
			Company:      s.directory.Company(thread.CustomerID),
			Subject:      thread.Subject,
			LastUpdated:  thread.LastUpdated,
			UnreadCount:  thread.UnreadCount,
			Selected:     thread.ID == selected,
		}
		if last := thread.LastMessage(); last != nil {
			summary.Preview = last.Text
		}

		summaries = append(summaries, summary)
	}

	return summaries
}

func (s *InboxService) matches(thread *models.Thread, term string) bool {
	if strings.Contains(strings.ToLower(thread.Subject), term) {
		return true
	}

	if customer, ok := s.directory.Lookup(thread.CustomerID); ok {
		if strings.Contains(strings.ToLower(customer.FullName()), term) ||
			strings.Contains(strings.ToLower(customer.Company), term) {
			return true
		}
	}

	for _, msg := range thread.Messages {
		if strings.Contains(strings.ToLower(msg.Text), term) {
			return true
		}
	}

	return false
}

// SelectedThread returns the detail view of the selected thread. When nothing
// is selected yet the first thread is selected, which marks it read.
func (s *InboxService) SelectedThread(ctx context.Context) (*models.ThreadDetail, error) {
	thread, ok := s.store.SelectedThread()
	if !ok {
		all := s.store.Threads()
		if len(all) == 0 {
			return nil, nil
		}
		if err := s.store.SelectThread(ctx, all[0].ID); err != nil {
			return nil, err
		}
		if thread, ok = s.store.SelectedThread(); !ok {
			return nil, nil
		}
	}

	return s.detail(thread), nil
}

func (s *InboxService) SelectThread(ctx context.Context, threadID string) (*models.ThreadDetail, error) {
	if err := s.store.SelectThread(ctx, threadID); err != nil {
		return nil, err
	}

	thread, ok := s.store.Thread(threadID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", threads.ErrThreadNotFound, threadID)
	}

	return s.detail(thread), nil
}

func (s *InboxService) SendMessage(ctx context.Context, threadID string, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrMessageRequired
	}

	msg, err := s.store.SendMessage(ctx, threadID, text)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("thread", threadID).Str("message", msg.ID).Msg("message sent")
	return msg, nil
}

// CreateThread validates the compose form and starts a new conversation.
func (s *InboxService) CreateThread(ctx context.Context, input models.ComposeInput) (*models.Thread, error) {
	if input.CustomerID == "" {
		return nil, ErrCustomerRequired
	}
	if strings.TrimSpace(input.Subject) == "" {
		return nil, ErrSubjectRequired
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, ErrMessageRequired
	}

	thread, err := s.store.CreateThread(ctx, input.CustomerID, input.Subject, input.Message)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("thread", thread.ID).Str("customer", input.CustomerID).Msg("thread created")
	return thread, nil
}

func (s *InboxService) detail(thread *models.Thread) *models.ThreadDetail {
	return &models.ThreadDetail{
		Thread:       thread,
		CustomerName: s.directory.DisplayName(thread.CustomerID),
		Company:      s.directory.Company(thread.CustomerID),
	}
}
