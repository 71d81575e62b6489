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

// Package registry tracks per-file translation outcomes in Redis while a task
// is in flight. The coordinator polls it to learn when every file it fanned
// out has been settled by a worker. Entries expire on their own, so a crashed
// run leaves no permanent residue.
package registry

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// per-file outcomes recorded by workers
const (
	FileTranslating = "translating"
	FileCompleted   = "completed"
	FileFailed      = "failed"
)

// Registry records and reports the progress of individual files within a
// translation task.
type Registry interface {
	// SetFileStatus records the outcome of one file of a task.
	SetFileStatus(ctx context.Context, taskId, fileId, status string) error
	// SetFileError records why a file failed, alongside its failed status.
	SetFileError(ctx context.Context, taskId, fileId, message string) error
	// FileStatus returns the recorded status of one file, or the empty
	// string if none has been recorded (or it has expired).
	FileStatus(ctx context.Context, taskId, fileId string) (string, error)
	// FileError returns the recorded failure message for one file, if any.
	FileError(ctx context.Context, taskId, fileId string) (string, error)
	// CachedTranslation returns a previously cached translation of the
	// given source text, or ok=false on a miss.
	CachedTranslation(ctx context.Context, targetLanguage, text string) (string, bool, error)
	// CacheTranslation stores a translation for later reuse.
	CacheTranslation(ctx context.Context, targetLanguage, text, translated string) error
	// Close tears down the Redis connection.
	Close() error
}

// connection and expiry parameters for the registry
type Options struct {
	Address  string
	Username string
	Password string
	DB       int
	// lifetime of per-file status entries; must outlast the longest
	// expected task run
	StatusTTL time.Duration
	// lifetime of cached translations
	CacheTTL time.Duration
}

type redisRegistry struct {
	client    *redis.Client
	statusTTL time.Duration
	cacheTTL  time.Duration
}

// New connects to the Redis instance described by the given options.
func New(options Options) Registry {
	client := redis.NewClient(&redis.Options{
		Addr:     options.Address,
		Username: options.Username,
		Password: options.Password,
		DB:       options.DB,
	})
	return &redisRegistry{
		client:    client,
		statusTTL: options.StatusTTL,
		cacheTTL:  options.CacheTTL,
	}
}

func statusKey(taskId, fileId string) string {
	return fmt.Sprintf("file_task:%s:%s:status", taskId, fileId)
}

func errorKey(taskId, fileId string) string {
	return fmt.Sprintf("file_task:%s:%s:error", taskId, fileId)
}

// cache keys hash the source text so that arbitrarily long strings make
// fixed-size keys
func cacheKey(targetLanguage, text string) string {
	return fmt.Sprintf("translation:%s:%x", targetLanguage, md5.Sum([]byte(text)))
}

func (r *redisRegistry) SetFileStatus(ctx context.Context, taskId, fileId, status string) error {
	return r.client.Set(ctx, statusKey(taskId, fileId), status, r.statusTTL).Err()
}

func (r *redisRegistry) SetFileError(ctx context.Context, taskId, fileId, message string) error {
	if err := r.client.Set(ctx, errorKey(taskId, fileId), message, r.statusTTL).Err(); err != nil {
		return err
	}
	return r.SetFileStatus(ctx, taskId, fileId, FileFailed)
}

func (r *redisRegistry) FileStatus(ctx context.Context, taskId, fileId string) (string, error) {
	status, err := r.client.Get(ctx, statusKey(taskId, fileId)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return status, err
}

func (r *redisRegistry) FileError(ctx context.Context, taskId, fileId string) (string, error) {
	message, err := r.client.Get(ctx, errorKey(taskId, fileId)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return message, err
}

func (r *redisRegistry) CachedTranslation(ctx context.Context, targetLanguage,
	text string) (string, bool, error) {
	translated, err := r.client.Get(ctx, cacheKey(targetLanguage, text)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return translated, true, nil
}

func (r *redisRegistry) CacheTranslation(ctx context.Context, targetLanguage,
	text, translated string) error {
	return r.client.Set(ctx, cacheKey(targetLanguage, text), translated, r.cacheTTL).Err()
}

func (r *redisRegistry) Close() error {
	return r.client.Close()
}
