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

// Package queue carries the pipeline's work messages over a message broker.
// Task messages fan out to coordinators and per-file messages fan out to
// translation workers; both travel as persistent JSON payloads on durable
// queues.
package queue

import "context"

// Disposition tells the queue what to do with a delivered message after the
// handler has seen it.
type Disposition int

const (
	// Ack removes the message from the queue.
	Ack Disposition = iota
	// Discard removes the message without redelivery. Used when a message
	// is malformed or its work has failed in a way retrying cannot fix.
	Discard
)

// Delivery is a single message handed to a consumer.
type Delivery struct {
	Body []byte
	// Done settles the message with the broker. It must be called exactly
	// once per delivery.
	Done func(Disposition) error
}

// Queue publishes and consumes work messages on named durable queues.
type Queue interface {
	// Declare ensures the named durable queue exists.
	Declare(ctx context.Context, name string) error
	// Publish enqueues a persistent message.
	Publish(ctx context.Context, name string, body []byte) error
	// Consume delivers messages from the named queue on the returned
	// channel until the context is canceled. At most prefetch messages are
	// outstanding (delivered but not settled) at a time.
	Consume(ctx context.Context, name string, prefetch int) (<-chan Delivery, error)
	// Purge drops all ready messages from the named queue.
	Purge(ctx context.Context, name string) error
	// Close tears down the broker connection.
	Close() error
}
