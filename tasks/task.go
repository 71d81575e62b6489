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

// Package tasks defines the translation task record and the durable store
// that tracks every task through its lifecycle: pending, preparing,
// translating, finalizing, and finally completed or failed.
package tasks

import (
	"time"

	"github.com/google/uuid"
)

// This type tracks the lifecycle of a single archive translation task from
// submission through to its translated result (or failure).
type Task struct {
	Id             uuid.UUID  // task identifier
	SourceURL      string     // s3:// URL of the uploaded source archive
	DestBucket     string     // bucket receiving the translated archive
	DestKey        string     // key under which the result is stored
	TargetLanguage string     // requested target language, as submitted
	TranslateStyle string     // optional style hint for the translator
	Status         Status     // current lifecycle state
	Progress       float64    // coarse completion estimate, 0 to 100
	TotalFiles     int        // translatable files found in the archive
	ProcessedFiles int        // files whose outcome has been recorded
	ErrorMessage   string     // set when the task failed, empty otherwise
	CreatedAt      time.Time  // time the task was accepted
	UpdatedAt      time.Time  // time of the last state change
	CompletedAt    *time.Time // time the task reached a terminal state
}

// Update describes a partial change to a task. Nil fields are left untouched.
type Update struct {
	Status         *Status
	Progress       *float64
	TotalFiles     *int
	ProcessedFiles *int
	ErrorMessage   *string
}

// StatusTo returns an Update that only moves the task to the given status.
func StatusTo(status Status) Update {
	return Update{Status: &status}
}

// Apply folds an update into the task, enforcing the lifecycle rules:
//   - status changes must follow the transition table
//   - entering a terminal state stamps CompletedAt
//   - retrying a failed task (failed -> pending) clears its progress,
//     processed count, error message, and completion time
func (task *Task) Apply(update Update, now time.Time) error {
	if update.Status != nil && *update.Status != task.Status {
		to := *update.Status
		if !to.Valid() {
			return &InvalidStatusError{Status: to}
		}
		if !task.Status.CanTransition(to) {
			return &InvalidTransitionError{From: task.Status, To: to}
		}
		if task.Status == StatusFailed && to == StatusPending {
			task.Progress = 0
			task.ProcessedFiles = 0
			task.ErrorMessage = ""
			task.CompletedAt = nil
		}
		task.Status = to
		if to.Terminal() {
			completed := now
			task.CompletedAt = &completed
		}
	}
	if update.Progress != nil {
		task.Progress = *update.Progress
	}
	if update.TotalFiles != nil {
		task.TotalFiles = *update.TotalFiles
	}
	if update.ProcessedFiles != nil {
		task.ProcessedFiles = *update.ProcessedFiles
	}
	if update.ErrorMessage != nil {
		task.ErrorMessage = *update.ErrorMessage
	}
	task.UpdatedAt = now
	return nil
}

// Age returns the duration since the task reached a terminal state, or 0 if
// it has not.
func (task Task) Age() time.Duration {
	if task.CompletedAt == nil {
		return 0
	}
	return time.Since(*task.CompletedAt)
}
