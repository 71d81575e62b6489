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

// Status identifies where a translation task sits in its lifecycle.
type Status string

const (
	StatusPending     Status = "pending"     // accepted, not yet picked up
	StatusPreparing   Status = "preparing"   // archive being fetched and unpacked
	StatusTranslating Status = "translating" // files fanned out to workers
	StatusFinalizing  Status = "finalizing"  // results being repacked and uploaded
	StatusCompleted   Status = "completed"   // translated archive available
	StatusFailed      Status = "failed"      // stopped with an error; may be retried
)

// Valid reports whether the status is one of the known lifecycle states.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusPreparing, StatusTranslating,
		StatusFinalizing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status ends a run of the pipeline. A failed
// task is terminal but may be returned to pending by a retry.
func (status Status) Terminal() bool {
	return status == StatusCompleted || status == StatusFailed
}

// CanTransition reports whether a task may move from this status to the given
// one. A transition to the same status is always permitted and treated as a
// no-op by the store.
func (status Status) CanTransition(to Status) bool {
	if status == to {
		return true
	}
	switch status {
	case StatusPending:
		return to == StatusPreparing || to == StatusFailed
	case StatusPreparing:
		return to == StatusTranslating || to == StatusFailed
	case StatusTranslating:
		return to == StatusFinalizing || to == StatusFailed
	case StatusFinalizing:
		return to == StatusCompleted || to == StatusFailed
	case StatusFailed:
		return to == StatusPending
	}
	return false
}
