package threads

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zjregee/crmdesk/internal/models"
	"github.com/zjregee/crmdesk/internal/service/storage"
	"github.com/zjregee/crmdesk/internal/utils"
)

var (
	ErrThreadNotFound = errors.New("thread not found")
	ErrStoreClosed    = errors.New("thread store is closed")
)

type Option func(*Store)

// WithLogger sets the logger used for load fallbacks and commit failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator replaces the thread and message id generators.
func WithIDGenerator(threadID, messageID func() string) Option {
	return func(s *Store) {
		s.newThreadID = threadID
		s.newMessageID = messageID
	}
}

// Store holds every thread in display order plus the selected-thread pointer.
type Store struct {
	repo         storage.Repository
	logger       zerolog.Logger
	now          func() time.Time
	newThreadID  func() string
	newMessageID func() string

	mu       sync.RWMutex
	threads  []*models.Thread
	selected string
	loaded   bool
	closed   bool
}

// NewStore returns a store over repo. Nothing is read until Load is called or
// the store is first used; either triggers the same load.
func NewStore(repo storage.Repository, opts ...Option) *Store {
	s := &Store{
		repo:         repo,
		logger:       zerolog.Nop(),
		now:          time.Now,
		newThreadID:  utils.GenerateThreadID,
		newMessageID: utils.GenerateMessageID,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads the persisted collection, falling back to the demo dataset when
// nothing usable is stored. It never fails.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) {
	s.loaded = true
	s.selected = ""

	threads, err := s.repo.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Info().Msg("no stored threads, seeding demo inbox")
	case err != nil:
		s.logger.Warn().Err(err).Msg("stored threads unusable, seeding demo inbox")
	case len(threads) == 0:
		s.logger.Info().Msg("stored inbox is empty, seeding demo inbox")
	default:
		s.threads = threads
		s.logger.Debug().Int("threads", len(threads)).Msg("loaded threads")
		return
	}

	s.threads = DemoThreads()
}

// loadForRead runs the lazy load for read methods, which have no context.
func (s *Store) loadForRead() {
	s.mu.RLock()
	ready := s.loaded || s.closed
	s.mu.RUnlock()
	if ready {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded && !s.closed {
		s.loadLocked(context.Background())
	}
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.closed {
		return ErrStoreClosed
	}
	if !s.loaded {
		s.loadLocked(ctx)
	}
	return nil
}

// SelectThread moves the selected pointer to id and marks the thread's
// inbound messages read.
func (s *Store) SelectThread(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	thread := s.findLocked(id)
	if thread != nil {
		s.selected = id
		for _, msg := range thread.Messages {
			if msg.IsInbound() {
				msg.IsRead = true
			}
		}
		thread.UnreadCount = 0
	}

	if err := s.commitLocked(ctx); err != nil {
		return err
	}
	if thread == nil {
		return fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}

	return nil
}

// SendMessage appends an outbound message and moves the thread to the top.
// The text is not validated here.
func (s *Store) SendMessage(ctx context.Context, id string, text string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	var sent *models.Message
	thread := s.findLocked(id)
	if thread != nil {
		sent = s.newOutboundMessage(text)
		thread.Messages = append(thread.Messages, sent)
		thread.LastUpdated = sent.Timestamp
	}

	sort.SliceStable(s.threads, func(i, j int) bool {
		return s.threads[i].LastUpdated.After(s.threads[j].LastUpdated)
	})

	if err := s.commitLocked(ctx); err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, id)
	}

	m := *sent
	return &m, nil
}

// CreateThread starts a conversation with one outbound message, puts it first
// and selects it.
func (s *Store) CreateThread(ctx context.Context, customerID, subject, text string) (*models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	first := s.newOutboundMessage(text)
	thread := &models.Thread{
		ID:          s.newThreadID(),
		CustomerID:  customerID,
		Subject:     subject,
		Messages:    []*models.Message{first},
		LastUpdated: first.Timestamp,
		UnreadCount: 0,
	}

	s.threads = append([]*models.Thread{thread}, s.threads...)
	s.selected = thread.ID

	if err := s.commitLocked(ctx); err != nil {
		return nil, err
	}

	return thread.Clone(), nil
}

// Threads returns a copy of the collection in display order.
func (s *Store) Threads() []*models.Thread {
	s.loadForRead()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return models.CloneThreads(s.threads)
}

func (s *Store) Thread(id string) (*models.Thread, bool) {
	s.loadForRead()

	s.mu.RLock()
	defer s.mu.RUnlock()

	thread := s.findLocked(id)
	if thread == nil {
		return nil, false
	}
	return thread.Clone(), true
}

func (s *Store) SelectedThreadID() string {
	s.loadForRead()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selected
}

func (s *Store) SelectedThread() (*models.Thread, bool) {
	s.loadForRead()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == "" {
		return nil, false
	}
	thread := s.findLocked(s.selected)
	if thread == nil {
		return nil, false
	}
	return thread.Clone(), true
}

// UnreadTotal sums the unread counts of every thread.
func (s *Store) UnreadTotal() int {
	s.loadForRead()

	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, thread := range s.threads {
		total += thread.UnreadCount
	}
	return total
}

// Close disposes the store. The repository is owned by the caller.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.threads = nil
	s.selected = ""
	return nil
}

func (s *Store) findLocked(id string) *models.Thread {
	for _, thread := range s.threads {
		if thread.ID == id {
			return thread
		}
	}
	return nil
}

func (s *Store) newOutboundMessage(text string) *models.Message {
	return &models.Message{
		ID:        s.newMessageID(),
		SenderID:  models.SystemSenderID,
		Text:      text,
		Timestamp: s.now().UTC(),
		IsRead:    true,
	}
}

// commitLocked writes the whole collection, replacing what was stored before.
func (s *Store) commitLocked(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.threads); err != nil {
		s.logger.Error().Err(err).Int("threads", len(s.threads)).Msg("failed to persist threads")
		return fmt.Errorf("failed to persist threads: %w", err)
	}
	return nil
}
