// Copyright (c) 2025 The Rusted Workshop Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// This package contains testing utilities for the mod translation service:
// in-memory stand-ins for the task store, the message broker, the file
// registry, and the object store, plus a deterministic translator.
package mtstest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rustedworkshop/mts/blobstore"
	"github.com/rustedworkshop/mts/queue"
	"github.com/rustedworkshop/mts/tasks"
	"github.com/rustedworkshop/mts/translator"
)

// Enables DEBUG log messages for the service's structured log (slog).
func EnableDebugLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelDebug)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

//-----------------
// Task Store Fixture
//-----------------

// This type implements an in-memory tasks.Store. It enforces the same
// lifecycle rules as the real store, so tests exercise the transition table.
type MemoryStore struct {
	mutex sync.Mutex
	tasks map[uuid.UUID]tasks.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[uuid.UUID]tasks.Task)}
}

func (store *MemoryStore) Create(ctx context.Context, task tasks.Task) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.tasks[task.Id] = task
	return nil
}

func (store *MemoryStore) Get(ctx context.Context, id uuid.UUID) (tasks.Task, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	task, found := store.tasks[id]
	if !found {
		return tasks.Task{}, &tasks.NotFoundError{Id: id}
	}
	return task, nil
}

func (store *MemoryStore) List(ctx context.Context, limit, offset int) ([]tasks.Task, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	list := make([]tasks.Task, 0, len(store.tasks))
	for _, task := range store.tasks {
		list = append(list, task)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if offset >= len(list) {
		return []tasks.Task{}, nil
	}
	list = list[offset:]
	if limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

func (store *MemoryStore) Update(ctx context.Context, id uuid.UUID,
	update tasks.Update) (tasks.Task, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	task, found := store.tasks[id]
	if !found {
		return tasks.Task{}, &tasks.NotFoundError{Id: id}
	}
	if err := task.Apply(update, time.Now().UTC()); err != nil {
		return tasks.Task{}, err
	}
	store.tasks[id] = task
	return task, nil
}

func (store *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	if _, found := store.tasks[id]; !found {
		return &tasks.NotFoundError{Id: id}
	}
	delete(store.tasks, id)
	return nil
}

func (store *MemoryStore) Close() {}

//-----------------
// Message Queue Fixture
//-----------------

// This type implements an in-memory queue.Queue. Dispositions are counted so
// tests can assert how messages were settled.
type MemoryQueue struct {
	mutex     sync.Mutex
	queues    map[string]chan queue.Delivery
	acked     int
	discarded int
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{queues: make(map[string]chan queue.Delivery)}
}

func (q *MemoryQueue) channel(name string) chan queue.Delivery {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	channel, found := q.queues[name]
	if !found {
		channel = make(chan queue.Delivery, 1024)
		q.queues[name] = channel
	}
	return channel
}

func (q *MemoryQueue) Declare(ctx context.Context, name string) error {
	q.channel(name)
	return nil
}

func (q *MemoryQueue) Publish(ctx context.Context, name string, body []byte) error {
	delivery := queue.Delivery{
		Body: body,
		Done: func(disposition queue.Disposition) error {
			q.mutex.Lock()
			defer q.mutex.Unlock()
			if disposition == queue.Ack {
				q.acked++
			} else {
				q.discarded++
			}
			return nil
		},
	}
	select {
	case q.channel(name) <- delivery:
		return nil
	default:
		return fmt.Errorf("Queue %s is full.", name)
	}
}

func (q *MemoryQueue) Consume(ctx context.Context, name string, prefetch int) (<-chan queue.Delivery, error) {
	source := q.channel(name)
	out := make(chan queue.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case delivery := <-source:
				select {
				case out <- delivery:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (q *MemoryQueue) Purge(ctx context.Context, name string) error {
	channel := q.channel(name)
	for {
		select {
		case <-channel:
		default:
			return nil
		}
	}
}

func (q *MemoryQueue) Close() error {
	return nil
}

// Pending returns the number of unconsumed messages on the named queue.
func (q *MemoryQueue) Pending(name string) int {
	return len(q.channel(name))
}

// Acked returns the number of messages settled with an Ack.
func (q *MemoryQueue) Acked() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.acked
}

// Discarded returns the number of messages settled with a Discard.
func (q *MemoryQueue) Discarded() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.discarded
}

//-----------------
// File Registry Fixture
//-----------------

// This type implements an in-memory registry.Registry.
type MemoryRegistry struct {
	mutex    sync.Mutex
	statuses map[string]string
	failures map[string]string
	cache    map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		statuses: make(map[string]string),
		failures: make(map[string]string),
		cache:    make(map[string]string),
	}
}

func fileKey(taskId, fileId string) string {
	return taskId + ":" + fileId
}

func (r *MemoryRegistry) SetFileStatus(ctx context.Context, taskId, fileId, status string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.statuses[fileKey(taskId, fileId)] = status
	return nil
}

func (r *MemoryRegistry) SetFileError(ctx context.Context, taskId, fileId, message string) error {
	r.mutex.Lock()
	r.failures[fileKey(taskId, fileId)] = message
	r.mutex.Unlock()
	return r.SetFileStatus(ctx, taskId, fileId, "failed")
}

func (r *MemoryRegistry) FileStatus(ctx context.Context, taskId, fileId string) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.statuses[fileKey(taskId, fileId)], nil
}

func (r *MemoryRegistry) FileError(ctx context.Context, taskId, fileId string) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.failures[fileKey(taskId, fileId)], nil
}

func (r *MemoryRegistry) CachedTranslation(ctx context.Context, targetLanguage,
	text string) (string, bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	translated, found := r.cache[targetLanguage+":"+text]
	return translated, found, nil
}

func (r *MemoryRegistry) CacheTranslation(ctx context.Context, targetLanguage,
	text, translated string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.cache[targetLanguage+":"+text] = translated
	return nil
}

func (r *MemoryRegistry) Close() error {
	return nil
}

//-----------------
// Object Store Fixture
//-----------------

// This type implements an in-memory blobstore.Store, holding objects in a
// map keyed by bucket/key.
type MemoryBlobStore struct {
	mutex   sync.Mutex
	objects map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

// Put seeds an object directly, bypassing the upload path.
func (s *MemoryBlobStore) Put(bucket, key string, data []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.objects[bucket+"/"+key] = data
}

// Object returns a stored object's bytes, or ok=false if it does not exist.
func (s *MemoryBlobStore) Object(bucket, key string) ([]byte, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	data, found := s.objects[bucket+"/"+key]
	return data, found
}

func (s *MemoryBlobStore) Download(ctx context.Context, s3URL, localPath string) error {
	bucket, key, err := blobstore.ParseURL(s3URL)
	if err != nil {
		return err
	}
	data, found := s.Object(bucket, key)
	if !found {
		return fmt.Errorf("No such object: %s", s3URL)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(localPath, data, 0644)
}

func (s *MemoryBlobStore) Upload(ctx context.Context, localPath, bucket, key string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	s.Put(bucket, key, data)
	return blobstore.URL(bucket, key), nil
}

func (s *MemoryBlobStore) PresignPut(ctx context.Context, bucket, key string,
	ttl time.Duration, contentType string) (string, error) {
	return fmt.Sprintf("https://blobs.test/put/%s/%s", bucket, key), nil
}

func (s *MemoryBlobStore) PresignGet(ctx context.Context, bucket, key string,
	ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://blobs.test/get/%s/%s", bucket, key), nil
}

//-----------------
// Translator Fixture
//-----------------

// This type implements a deterministic translator.Translator. Strings found
// in Translations map to their values; everything else maps to
// "translated(<text>)". Batches are recorded for assertions.
type MapTranslator struct {
	mutex        sync.Mutex
	Translations map[string]string
	// the style AnalyzeStyle reports (NeutralStyle if empty)
	AnalyzedStyle string
	// an error returned by every Translate call, for failure tests
	Err     error
	batches [][]string
}

func (t *MapTranslator) Translate(ctx context.Context, batch []string,
	style, targetLanguage string) ([]string, error) {
	t.mutex.Lock()
	t.batches = append(t.batches, append([]string(nil), batch...))
	t.mutex.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}
	out := make([]string, len(batch))
	for i, text := range batch {
		if translated, found := t.Translations[text]; found {
			out[i] = translated
		} else {
			out[i] = "translated(" + text + ")"
		}
	}
	return out, nil
}

func (t *MapTranslator) AnalyzeStyle(ctx context.Context, sample string) (string, error) {
	if t.AnalyzedStyle != "" {
		return t.AnalyzedStyle, nil
	}
	return translator.NeutralStyle, nil
}

// Batches returns the translation batches seen so far.
func (t *MapTranslator) Batches() [][]string {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.batches
}
