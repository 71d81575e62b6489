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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/rustedworkshop/mts/mtstest"
	"github.com/rustedworkshop/mts/tasks"
)

// seeds a task record with the given status, completed the given time ago
func seedJanitorTask(t *testing.T, store *mtstest.MemoryStore,
	status tasks.Status, completedAgo time.Duration) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	task := tasks.Task{
		Id:             uuid.New(),
		SourceURL:      "s3://translation-tasks/uploads/src.rwmod",
		DestBucket:     "translation-tasks",
		DestKey:        "outputs/translated.rwmod",
		TargetLanguage: "中文",
		Status:         status,
		CreatedAt:      now.Add(-completedAgo - time.Minute),
		UpdatedAt:      now,
	}
	if status.Terminal() {
		completed := now.Add(-completedAgo)
		task.CompletedAt = &completed
	}
	assert.Nil(t, store.Create(context.Background(), task))
	return task.Id
}

func TestJanitorPurgesExpiredTasks(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := mtstest.NewMemoryStore()
	expired := seedJanitorTask(t, store, tasks.StatusCompleted, 48*time.Hour)
	fresh := seedJanitorTask(t, store, tasks.StatusFailed, time.Minute)
	running := seedJanitorTask(t, store, tasks.StatusTranslating, 0)

	janitor := NewJanitor(JanitorOptions{
		Store:         store,
		WorkDirectory: t.TempDir(),
		DeleteAfter:   24 * time.Hour,
	})
	assert.Nil(janitor.Sweep(ctx))

	_, err := store.Get(ctx, expired)
	assert.NotNil(err)
	_, err = store.Get(ctx, fresh)
	assert.Nil(err)
	_, err = store.Get(ctx, running)
	assert.Nil(err)
}

func TestJanitorRemovesOrphanedWorkDirs(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	store := mtstest.NewMemoryStore()
	workDirectory := t.TempDir()

	// a directory for a task nobody remembers
	orphan := filepath.Join(workDirectory, uuid.New().String())
	assert.Nil(os.Mkdir(orphan, 0755))

	// a directory for a task that already finished
	finished := seedJanitorTask(t, store, tasks.StatusCompleted, time.Minute)
	finishedDir := filepath.Join(workDirectory, finished.String())
	assert.Nil(os.Mkdir(finishedDir, 0755))

	// a directory for a task still in flight
	running := seedJanitorTask(t, store, tasks.StatusTranslating, 0)
	runningDir := filepath.Join(workDirectory, running.String())
	assert.Nil(os.Mkdir(runningDir, 0755))

	// a directory the janitor has no business touching
	keeper := filepath.Join(workDirectory, "lost+found")
	assert.Nil(os.Mkdir(keeper, 0755))

	janitor := NewJanitor(JanitorOptions{
		Store:         store,
		WorkDirectory: workDirectory,
		DeleteAfter:   24 * time.Hour,
	})
	assert.Nil(janitor.Sweep(ctx))

	_, err := os.Stat(orphan)
	assert.True(os.IsNotExist(err))
	_, err = os.Stat(finishedDir)
	assert.True(os.IsNotExist(err))
	_, err = os.Stat(runningDir)
	assert.Nil(err)
	_, err = os.Stat(keeper)
	assert.Nil(err)
}

func TestJanitorToleratesMissingWorkDirectory(t *testing.T) {
	assert := assert.New(t)

	janitor := NewJanitor(JanitorOptions{
		Store:         mtstest.NewMemoryStore(),
		WorkDirectory: filepath.Join(t.TempDir(), "never-created"),
		DeleteAfter:   24 * time.Hour,
	})
	assert.Nil(janitor.Sweep(context.Background()))
}
