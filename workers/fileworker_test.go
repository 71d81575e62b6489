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

package workers

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/rustedworkshop/mts/mtstest"
	"github.com/rustedworkshop/mts/queue"
	"github.com/rustedworkshop/mts/registry"
)

// a file worker together with its fixture collaborators
type workerFixture struct {
	worker     *FileWorker
	registry   *mtstest.MemoryRegistry
	translator *mtstest.MapTranslator
}

func newWorkerFixture() *workerFixture {
	fixture := &workerFixture{
		registry:   mtstest.NewMemoryRegistry(),
		translator: &mtstest.MapTranslator{},
	}
	fixture.worker = NewFileWorker(FileWorkerOptions{
		Queue:      mtstest.NewMemoryQueue(),
		Registry:   fixture.registry,
		Translator: fixture.translator,
		FileQueue:  testFileQueue,
	})
	return fixture
}

// writes a file into a working directory and returns the message for it
func stageFile(t *testing.T, content string) (FileMessage, string) {
	t.Helper()
	workDir := t.TempDir()
	path := filepath.Join(workDir, "tank.ini")
	assert.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return FileMessage{
		TaskId:         uuid.New().String(),
		FileId:         uuid.New().String(),
		FilePath:       "tank.ini",
		WorkDir:        workDir,
		TargetLanguage: "中文",
	}, path
}

// settles one message through the worker's handler, reporting how it was
// settled
func settle(ctx context.Context, w *FileWorker, body []byte) (queue.Disposition, bool) {
	var disposition queue.Disposition
	settled := false
	w.handle(ctx, queue.Delivery{
		Body: body,
		Done: func(d queue.Disposition) error {
			disposition = d
			settled = true
			return nil
		},
	})
	return disposition, settled
}

func TestFileWorkerTranslatesInPlace(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fixture := newWorkerFixture()
	fixture.translator.Translations = map[string]string{"A red tank.": "红色坦克。"}
	message, path := stageFile(t, "[core]\ndescription: A red tank.\nmaxHp: 300\n")

	body, err := json.Marshal(message)
	assert.Nil(err)
	disposition, settled := settle(ctx, fixture.worker, body)
	assert.True(settled)
	assert.Equal(queue.Ack, disposition)

	status, err := fixture.registry.FileStatus(ctx, message.TaskId, message.FileId)
	assert.Nil(err)
	assert.Equal(registry.FileCompleted, status)

	content, err := os.ReadFile(path)
	assert.Nil(err)
	assert.Contains(string(content), "description: A red tank.\n")
	assert.Contains(string(content), "description_zh: 红色坦克。\n")
	assert.Contains(string(content), "maxHp: 300\n")
}

func TestFileWorkerDiscardsMalformedMessages(t *testing.T) {
	assert := assert.New(t)

	fixture := newWorkerFixture()
	disposition, settled := settle(context.Background(), fixture.worker,
		[]byte("not json"))
	assert.True(settled)
	assert.Equal(queue.Discard, disposition)
}

func TestFileWorkerRecordsTranslationFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fixture := newWorkerFixture()
	fixture.translator.Err = errors.New("model unavailable")
	message, path := stageFile(t, "[core]\ndescription: A red tank.\n")

	body, err := json.Marshal(message)
	assert.Nil(err)
	disposition, settled := settle(ctx, fixture.worker, body)
	assert.True(settled)
	// a failed file is discarded, not requeued; the outcome lives in the
	// registry
	assert.Equal(queue.Discard, disposition)

	status, err := fixture.registry.FileStatus(ctx, message.TaskId, message.FileId)
	assert.Nil(err)
	assert.Equal(registry.FileFailed, status)
	failure, err := fixture.registry.FileError(ctx, message.TaskId, message.FileId)
	assert.Nil(err)
	assert.Contains(failure, "model unavailable")

	// the file is left untouched
	content, err := os.ReadFile(path)
	assert.Nil(err)
	assert.Equal("[core]\ndescription: A red tank.\n", string(content))
}

func TestFileWorkerRecordsMissingFile(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fixture := newWorkerFixture()
	message := FileMessage{
		TaskId:         uuid.New().String(),
		FileId:         uuid.New().String(),
		FilePath:       "missing.ini",
		WorkDir:        t.TempDir(),
		TargetLanguage: "中文",
	}
	body, err := json.Marshal(message)
	assert.Nil(err)
	disposition, settled := settle(ctx, fixture.worker, body)
	assert.True(settled)
	assert.Equal(queue.Discard, disposition)

	status, err := fixture.registry.FileStatus(ctx, message.TaskId, message.FileId)
	assert.Nil(err)
	assert.Equal(registry.FileFailed, status)
}

func TestFileWorkerUsesTranslationCache(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fixture := newWorkerFixture()
	// seed the shared cache; the model itself would fail if consulted
	fixture.translator.Err = errors.New("model should not be called")
	assert.Nil(fixture.registry.CacheTranslation(ctx, "中文", "A red tank.", "红色坦克。"))

	message, path := stageFile(t, "[core]\ndescription: A red tank.\n")
	body, err := json.Marshal(message)
	assert.Nil(err)
	disposition, _ := settle(ctx, fixture.worker, body)
	assert.Equal(queue.Ack, disposition)

	content, err := os.ReadFile(path)
	assert.Nil(err)
	assert.Contains(string(content), "description_zh: 红色坦克。\n")
	// every string came from the cache
	assert.Empty(fixture.translator.Batches())
}

func TestFileWorkerFillsTranslationCache(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fixture := newWorkerFixture()
	fixture.translator.Translations = map[string]string{"A red tank.": "红色坦克。"}
	message, _ := stageFile(t, "[core]\ndescription: A red tank.\n")
	body, err := json.Marshal(message)
	assert.Nil(err)
	disposition, _ := settle(ctx, fixture.worker, body)
	assert.Equal(queue.Ack, disposition)

	cached, found, err := fixture.registry.CachedTranslation(ctx, "中文", "A red tank.")
	assert.Nil(err)
	assert.True(found)
	assert.Equal("红色坦克。", cached)
}
