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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rustedworkshop/mts/tasks"
)

// page size used when sweeping the task table
const janitorPageSize = 100

// everything a Janitor needs to do its job
type JanitorOptions struct {
	Store tasks.Store
	// directory in which coordinators unpack archives
	WorkDirectory string
	// how long terminal tasks are kept before their records are purged
	DeleteAfter time.Duration
	// how often to sweep
	SweepInterval time.Duration
}

// A Janitor periodically purges expired task records and removes working
// directories abandoned by crashed coordinators.
type Janitor struct {
	options JanitorOptions
}

// NewJanitor creates a janitor with the given options.
func NewJanitor(options JanitorOptions) *Janitor {
	return &Janitor{options: options}
}

// Run sweeps on the configured interval until the context is canceled.
func (j *Janitor) Run(ctx context.Context) error {
	slog.Info(fmt.Sprintf("Janitor sweeping every %s, purging tasks after %s",
		j.options.SweepInterval, j.options.DeleteAfter))
	ticker := time.NewTicker(j.options.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := j.Sweep(ctx); err != nil {
			slog.Error(fmt.Sprintf("Janitor sweep: %s", err.Error()))
		}
	}
}

// Sweep performs one pass: it purges terminal task records older than
// DeleteAfter and removes working directories with no live task behind them.
func (j *Janitor) Sweep(ctx context.Context) error {
	if err := j.purgeExpiredTasks(ctx); err != nil {
		return err
	}
	return j.removeOrphanedWorkDirs(ctx)
}

func (j *Janitor) purgeExpiredTasks(ctx context.Context) error {
	for offset := 0; ; offset += janitorPageSize {
		page, err := j.options.Store.List(ctx, janitorPageSize, offset)
		if err != nil {
			return err
		}
		for _, task := range page {
			if !task.Status.Terminal() || task.Age() < j.options.DeleteAfter {
				continue
			}
			slog.Debug(fmt.Sprintf("Task %s: purging expired record", task.Id.String()))
			err := j.options.Store.Delete(ctx, task.Id)
			if err != nil && !errors.As(err, new(*tasks.NotFoundError)) {
				return err
			}
		}
		if len(page) < janitorPageSize {
			return nil
		}
	}
}

// removeOrphanedWorkDirs deletes per-task working directories whose task is
// gone or already terminal. Directories not named by a task UUID are left
// alone.
func (j *Janitor) removeOrphanedWorkDirs(ctx context.Context) error {
	entries, err := os.ReadDir(j.options.WorkDirectory)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		taskId, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}
		task, err := j.options.Store.Get(ctx, taskId)
		orphaned := false
		if err != nil {
			if !errors.As(err, new(*tasks.NotFoundError)) {
				return err
			}
			orphaned = true
		} else if task.Status.Terminal() {
			orphaned = true
		}
		if orphaned {
			path := filepath.Join(j.options.WorkDirectory, entry.Name())
			slog.Info(fmt.Sprintf("Removing orphaned work directory %s", path))
			if err := os.RemoveAll(path); err != nil {
				return err
			}
		}
	}
	return nil
}
