package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjregee/crmdesk/internal/models"
)

const legacyBlob = `[
  {
    "id": "2",
    "customerId": "2",
    "subject": "Demo Request",
    "messages": [
      {"id": "m3", "senderId": "2", "text": "Hello", "timestamp": "2023-07-21T09:15:00.000Z", "isRead": false}
    ],
    "lastUpdated": "2023-07-21T09:15:00.000Z",
    "unreadCount": 1
  }
]`

func sampleThreads() []*models.Thread {
	ts := time.Date(2023, 7, 20, 11, 45, 0, 0, time.UTC)
	return []*models.Thread{
		{
			ID:         "1",
			CustomerID: "1",
			Subject:    "Marketing Campaign Discussion",
			Messages: []*models.Message{
				{ID: "m1", SenderID: models.SystemSenderID, Text: "Hello Alex", Timestamp: ts.Add(-time.Hour), IsRead: true},
				{ID: "m2", SenderID: "1", Text: "Hi there!", Timestamp: ts, IsRead: false},
			},
			LastUpdated: ts,
			UnreadCount: 1,
		},
	}
}

func TestDecodeLegacyArray(t *testing.T) {
	record, err := DecodeThreads([]byte(legacyBlob))
	require.NoError(t, err)
	assert.Equal(t, legacyRecordVersion, record.Version)
	assert.Empty(t, record.Skipped)

	threads := record.Threads
	require.Len(t, threads, 1)

	thread := threads[0]
	assert.Equal(t, "2", thread.ID)
	assert.Equal(t, 1, thread.UnreadCount)
	assert.Equal(t, time.Date(2023, 7, 21, 9, 15, 0, 0, time.UTC), thread.LastUpdated.UTC())
	assert.False(t, thread.Messages[0].IsRead)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := sampleThreads()

	data, err := EncodeThreads(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":1`)

	record, err := DecodeThreads(data)
	require.NoError(t, err)
	assert.Equal(t, currentRecordVersion, record.Version)

	decoded := record.Threads
	require.Len(t, decoded, 1)
	assert.Equal(t, original[0].ID, decoded[0].ID)
	assert.Equal(t, original[0].Subject, decoded[0].Subject)
	assert.True(t, original[0].LastUpdated.Equal(decoded[0].LastUpdated))
	require.Len(t, decoded[0].Messages, 2)
	assert.Equal(t, "m2", decoded[0].Messages[1].ID)
}

func TestDecodeRecomputesDerivedFields(t *testing.T) {
	blob := `{"version":1,"threads":[{"id":"1","customerId":"1","subject":"s",
		"messages":[
			{"id":"a","senderId":"1","text":"x","timestamp":"2024-01-01T10:00:00Z","isRead":false},
			{"id":"b","senderId":"1","text":"y","timestamp":"2024-01-02T10:00:00Z","isRead":false}
		],
		"lastUpdated":"2020-01-01T00:00:00Z","unreadCount":9}]}`

	record, err := DecodeThreads([]byte(blob))
	require.NoError(t, err)
	threads := record.Threads
	assert.Equal(t, 2, threads[0].UnreadCount)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), threads[0].LastUpdated.UTC())
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"version":`,
		"scalar":            `"hello"`,
		"missing version":   `{"threads":[]}`,
		"unknown version":   `{"version":7,"threads":[]}`,
		"threads not array": `{"version":1,"threads":{}}`,
	}

	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeThreads([]byte(blob))
			assert.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestDecodeSkipsInvalidThreads(t *testing.T) {
	cases := map[string]string{
		"null thread":       `[null]`,
		"thread without id": `[{"customerId":"1","messages":[{"id":"m","timestamp":"2024-01-01T00:00:00Z"}]}]`,
		"message no id":     `[{"id":"1","messages":[{"timestamp":"2024-01-01T00:00:00Z"}]}]`,
		"message no ts":     `[{"id":"1","messages":[{"id":"m"}]}]`,
		"bad ts":            `[{"id":"1","messages":[{"id":"m","timestamp":"yesterday"}]}]`,
		"messages object":   `[{"id":"1","messages":{}}]`,
	}

	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			record, err := DecodeThreads([]byte(blob))
			require.NoError(t, err)
			assert.Empty(t, record.Threads)
			require.Len(t, record.Skipped, 1)
			assert.ErrorIs(t, record.Skipped[0], ErrMalformedRecord)
		})
	}
}

func TestDecodeKeepsValidThreadsAlongsideBadOnes(t *testing.T) {
	blob := `{"version":1,"threads":[
		{"id":"42","customerId":"5","subject":"Renewal","messages":[
			{"id":"x","senderId":"5","text":"Ping","timestamp":"2024-02-02T10:00:00Z","isRead":false}]},
		{"id":"43","customerId":"4","subject":"Draft","messages":[],"lastUpdated":"2024-01-05T08:00:00Z","unreadCount":3},
		{"id":"44","subject":"Broken","messages":[{"id":"y"}]},
		{"id":"42","subject":"Copy","messages":[{"id":"z","timestamp":"2024-03-01T00:00:00Z"}]}
	]}`

	record, err := DecodeThreads([]byte(blob))
	require.NoError(t, err)
	require.Len(t, record.Threads, 2)
	assert.Len(t, record.Skipped, 2)

	assert.Equal(t, "42", record.Threads[0].ID)
	assert.Equal(t, "Renewal", record.Threads[0].Subject)
	assert.Equal(t, 1, record.Threads[0].UnreadCount)

	empty := record.Threads[1]
	assert.Equal(t, "43", empty.ID)
	assert.Empty(t, empty.Messages)
	assert.Zero(t, empty.UnreadCount)
	assert.Equal(t, time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC), empty.LastUpdated.UTC())
}

func TestThreadRepositoryLogsSkippedThreads(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Put(ctx, DefaultThreadsKey, []byte(`[null,{"id":"7","messages":[]}]`)))

	var buf bytes.Buffer
	repo := NewThreadRepository(backend, "", WithLogger(zerolog.New(&buf)))

	threads, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, "7", threads[0].ID)
	assert.Contains(t, buf.String(), "dropping unusable stored thread")
	assert.Contains(t, buf.String(), "legacy thread record")
}

func TestThreadRepositoryMissingKey(t *testing.T) {
	repo := NewThreadRepository(NewMemoryBackend(), "")
	assert.Equal(t, DefaultThreadsKey, repo.Key())

	_, err := repo.Load(context.Background())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestThreadRepositoryOverwrites(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	repo := NewThreadRepository(backend, "inbox")

	threads := sampleThreads()
	require.NoError(t, repo.Save(ctx, threads))

	threads[0].Subject = "Changed"
	require.NoError(t, repo.Save(ctx, threads))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Changed", loaded[0].Subject)

	_, err = backend.Get(ctx, DefaultThreadsKey)
	assert.ErrorIs(t, err, ErrNotFound)
}
