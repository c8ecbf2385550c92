package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/zjregee/crmdesk/internal/models"
)

// DefaultThreadsKey is the key the browser build kept its inbox under.
const DefaultThreadsKey = "crm-messages"

const (
	legacyRecordVersion  = 0
	currentRecordVersion = 1
)

// Repository loads and saves the whole thread collection.
type Repository interface {
	Load(ctx context.Context) ([]*models.Thread, error)
	Save(ctx context.Context, threads []*models.Thread) error
}

type ThreadsRecord struct {
	Version int              `json:"version"`
	Threads []*models.Thread `json:"threads"`

	// Skipped holds one error per stored thread that was dropped at decode.
	Skipped []error `json:"-"`
}

// ThreadRepository persists the collection as one blob under a fixed key.
type ThreadRepository struct {
	backend Backend
	key     string
	logger  zerolog.Logger
}

type RepositoryOption func(*ThreadRepository)

// WithLogger reports dropped threads and legacy records found at load.
func WithLogger(logger zerolog.Logger) RepositoryOption {
	return func(r *ThreadRepository) {
		r.logger = logger
	}
}

func NewThreadRepository(backend Backend, key string, opts ...RepositoryOption) *ThreadRepository {
	if key == "" {
		key = DefaultThreadsKey
	}

	r := &ThreadRepository{
		backend: backend,
		key:     key,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *ThreadRepository) Key() string {
	return r.key
}

func (r *ThreadRepository) Load(ctx context.Context) ([]*models.Thread, error) {
	data, err := r.backend.Get(ctx, r.key)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, ErrNotFound
	}

	record, err := DecodeThreads(data)
	if err != nil {
		return nil, err
	}

	for _, skipped := range record.Skipped {
		r.logger.Warn().Err(skipped).Str("key", r.key).Msg("dropping unusable stored thread")
	}
	if record.Version == legacyRecordVersion {
		r.logger.Info().Str("key", r.key).Msg("legacy thread record, upgrading on next save")
	}

	return record.Threads, nil
}

func (r *ThreadRepository) Save(ctx context.Context, threads []*models.Thread) error {
	data, err := EncodeThreads(threads)
	if err != nil {
		return err
	}

	if err := r.backend.Put(ctx, r.key, data); err != nil {
		return fmt.Errorf("failed to save threads under %s: %w", r.key, err)
	}

	return nil
}

func EncodeThreads(threads []*models.Thread) ([]byte, error) {
	if threads == nil {
		threads = []*models.Thread{}
	}

	record := ThreadsRecord{
		Version: currentRecordVersion,
		Threads: threads,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal threads: %w", err)
	}

	return data, nil
}

// DecodeThreads accepts the current envelope as well as the bare array
// written by the browser build. Threads that fail validation are left out
// and reported in Skipped; the rest are normalized.
func DecodeThreads(data []byte) (*ThreadsRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedRecord)
	}

	res := gjson.ParseBytes(data)

	var version int64
	var raw string
	switch {
	case res.IsArray():
		version = legacyRecordVersion
		raw = res.Raw
	case res.IsObject():
		v := res.Get("version")
		if !v.Exists() {
			return nil, fmt.Errorf("%w: missing version", ErrMalformedRecord)
		}
		version = v.Int()
		threads := res.Get("threads")
		if !threads.IsArray() {
			return nil, fmt.Errorf("%w: threads is not an array", ErrMalformedRecord)
		}
		raw = threads.Raw
	default:
		return nil, fmt.Errorf("%w: unexpected %s value", ErrMalformedRecord, res.Type)
	}

	if version != legacyRecordVersion && version != currentRecordVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedRecord, version)
	}

	record := &ThreadsRecord{
		Version: int(version),
		Threads: []*models.Thread{},
	}
	seen := make(map[string]struct{})

	// decode thread by thread so one bad entry does not sink the others
	for i, item := range gjson.Parse(raw).Array() {
		var thread *models.Thread
		if err := json.Unmarshal([]byte(item.Raw), &thread); err != nil {
			record.Skipped = append(record.Skipped, fmt.Errorf("%w: thread %d: %v", ErrMalformedRecord, i, err))
			continue
		}
		if err := validateThread(i, thread, seen); err != nil {
			record.Skipped = append(record.Skipped, err)
			continue
		}

		thread.Normalize()
		record.Threads = append(record.Threads, thread)
	}

	return record, nil
}

// validateThread checks one stored thread. A thread without messages is kept
// with its stored lastUpdated.
func validateThread(i int, thread *models.Thread, seen map[string]struct{}) error {
	if thread == nil {
		return fmt.Errorf("%w: thread %d is null", ErrMalformedRecord, i)
	}
	if thread.ID == "" {
		return fmt.Errorf("%w: thread %d has no id", ErrMalformedRecord, i)
	}
	if _, ok := seen[thread.ID]; ok {
		return fmt.Errorf("%w: duplicate thread id %s", ErrMalformedRecord, thread.ID)
	}

	for j, msg := range thread.Messages {
		if msg == nil || msg.ID == "" {
			return fmt.Errorf("%w: thread %s message %d has no id", ErrMalformedRecord, thread.ID, j)
		}
		if msg.Timestamp.IsZero() {
			return fmt.Errorf("%w: message %s has no timestamp", ErrMalformedRecord, msg.ID)
		}
	}

	seen[thread.ID] = struct{}{}
	return nil
}
