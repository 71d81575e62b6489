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

package queue

import (
	"context"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// connection parameters for the message broker
type Options struct {
	// an amqp:// connection URL
	URL string
}

// amqpQueue is a Queue backed by RabbitMQ. Publishing shares one channel
// guarded by a mutex; each consumer gets a channel of its own so that its
// prefetch window does not interfere with the others.
type amqpQueue struct {
	conn    *amqp.Connection
	mutex   sync.Mutex
	publish *amqp.Channel
}

// New connects to the message broker described by the given options.
func New(options Options) (Queue, error) {
	conn, err := amqp.Dial(options.URL)
	if err != nil {
		return nil, err
	}
	publish, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &amqpQueue{conn: conn, publish: publish}, nil
}

func (q *amqpQueue) Declare(ctx context.Context, name string) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	_, err := q.publish.QueueDeclare(name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil)
	return err
}

func (q *amqpQueue) Publish(ctx context.Context, name string, body []byte) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.publish.PublishWithContext(ctx, "", name, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

func (q *amqpQueue) Consume(ctx context.Context, name string, prefetch int) (<-chan Delivery, error) {
	channel, err := q.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := channel.Qos(prefetch, 0, false); err != nil {
		channel.Close()
		return nil, err
	}
	deliveries, err := channel.Consume(name,
		"",    // consumer tag (generated)
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil)
	if err != nil {
		channel.Close()
		return nil, err
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer channel.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					slog.Warn("Message broker closed the delivery channel",
						"queue", name)
					return
				}
				select {
				case out <- wrapDelivery(delivery):
				case <-ctx.Done():
					// hand the unprocessed message back to the broker
					delivery.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func wrapDelivery(delivery amqp.Delivery) Delivery {
	return Delivery{
		Body: delivery.Body,
		Done: func(disposition Disposition) error {
			if disposition == Ack {
				return delivery.Ack(false)
			}
			return delivery.Nack(false, false)
		},
	}
}

func (q *amqpQueue) Purge(ctx context.Context, name string) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	_, err := q.publish.QueuePurge(name, false)
	return err
}

func (q *amqpQueue) Close() error {
	return q.conn.Close()
}
