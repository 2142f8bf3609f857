package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/styledna/api/internal/client"
	"github.com/styledna/api/internal/model"
)

// MemoryBlobs is an in-process StorageClient. It backs local development
// when object storage is unconfigured, and the handler tests. List
// returns keys in lexicographic order to keep the S3 contract.
type MemoryBlobs struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryBlobs creates an empty in-memory object store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{
		objects: make(map[string][]byte),
		baseURL: "https://storage.local",
	}
}

func (m *MemoryBlobs) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("failed to read object body: %w", err)
	}

	m.mu.Lock()
	m.objects[key] = buf.Bytes()
	m.mu.Unlock()

	return m.GetPublicURL(key), nil
}

func (m *MemoryBlobs) Download(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return nil, client.ErrObjectNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryBlobs) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBlobs) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0)
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBlobs) GetPublicURL(key string) string {
	return fmt.Sprintf("%s/%s", m.baseURL, key)
}

// MemoryJobStore is an in-process JobStore for tests and local runs.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewMemoryJobStore creates an empty job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*model.Job)}
}

func (m *MemoryJobStore) Save(ctx context.Context, job *model.Job) error {
	copied := *job
	m.mu.Lock()
	m.jobs[job.ID] = &copied
	m.mu.Unlock()
	return nil
}

func (m *MemoryJobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	copied := *job
	return &copied, nil
}

// MemoryActivityStore appends under a mutex, mirroring the atomicity the
// Redis list gives the real store.
type MemoryActivityStore struct {
	mu   sync.RWMutex
	days map[string][]model.ActivityRecord
}

// NewMemoryActivityStore creates an empty activity store.
func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{days: make(map[string][]model.ActivityRecord)}
}

func dayKey(userID, date string) string {
	return userID + ":" + date
}

func (m *MemoryActivityStore) Append(ctx context.Context, userID, date string, rec *model.ActivityRecord) error {
	m.mu.Lock()
	key := dayKey(userID, date)
	m.days[key] = append(m.days[key], *rec)
	m.mu.Unlock()
	return nil
}

func (m *MemoryActivityStore) Day(ctx context.Context, userID, date string) ([]model.ActivityRecord, error) {
	m.mu.RLock()
	records := m.days[dayKey(userID, date)]
	out := make([]model.ActivityRecord, len(records))
	copy(out, records)
	m.mu.RUnlock()
	return out, nil
}

// MemoryPhoneDirectory is an in-process phone index.
type MemoryPhoneDirectory struct {
	mu     sync.RWMutex
	phones map[string]string
}

// NewMemoryPhoneDirectory creates an empty phone index.
func NewMemoryPhoneDirectory() *MemoryPhoneDirectory {
	return &MemoryPhoneDirectory{phones: make(map[string]string)}
}

func (m *MemoryPhoneDirectory) Link(ctx context.Context, phone, userID string) error {
	m.mu.Lock()
	m.phones[phone] = userID
	m.mu.Unlock()
	return nil
}

func (m *MemoryPhoneDirectory) Lookup(ctx context.Context, phone string) (string, error) {
	m.mu.RLock()
	userID, ok := m.phones[phone]
	m.mu.RUnlock()

	if !ok {
		return "", ErrNotFound
	}
	return userID, nil
}
