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

package tasks

import (
	"context"

	"github.com/google/uuid"
)

// Store is the durable record of every translation task. Updates are
// validated against the task lifecycle before they are persisted, so a task
// observed through a Store never holds an unreachable state.
type Store interface {
	// Create persists a new task record.
	Create(ctx context.Context, task Task) error
	// Get retrieves the task with the given ID.
	Get(ctx context.Context, id uuid.UUID) (Task, error)
	// List returns tasks ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]Task, error)
	// Update applies a partial change to the task with the given ID and
	// returns the updated record. Lifecycle violations leave the record
	// untouched and return an InvalidTransitionError.
	Update(ctx context.Context, id uuid.UUID, update Update) (Task, error)
	// Delete removes the task record.
	Delete(ctx context.Context, id uuid.UUID) error
	// Close releases the store's resources.
	Close()
}
