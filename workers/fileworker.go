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
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/rustedworkshop/mts/inifile"
	"github.com/rustedworkshop/mts/language"
	"github.com/rustedworkshop/mts/queue"
	"github.com/rustedworkshop/mts/registry"
	"github.com/rustedworkshop/mts/translator"
)

// everything a FileWorker needs to do its job
type FileWorkerOptions struct {
	Queue      queue.Queue
	Registry   registry.Registry
	Translator translator.Translator
	// name of the per-file queue
	FileQueue string
	// number of unsettled file messages to hold at once
	Prefetch int
}

// A FileWorker consumes file messages and translates one config file each,
// rewriting it in place on the shared work volume and recording the outcome
// in the registry for the coordinator to collect.
type FileWorker struct {
	options FileWorkerOptions
}

// NewFileWorker creates a file worker with the given options.
func NewFileWorker(options FileWorkerOptions) *FileWorker {
	if options.Prefetch <= 0 {
		options.Prefetch = 1
	}
	return &FileWorker{options: options}
}

// Run consumes the file queue until the context is canceled.
func (w *FileWorker) Run(ctx context.Context) error {
	if err := w.options.Queue.Declare(ctx, w.options.FileQueue); err != nil {
		return err
	}
	deliveries, err := w.options.Queue.Consume(ctx, w.options.FileQueue,
		w.options.Prefetch)
	if err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("File worker consuming file messages from %s",
		w.options.FileQueue))
	for delivery := range deliveries {
		w.handle(ctx, delivery)
	}
	return nil
}

func (w *FileWorker) handle(ctx context.Context, delivery queue.Delivery) {
	var message FileMessage
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		slog.Error(fmt.Sprintf("Discarding malformed file message: %s", err.Error()))
		delivery.Done(queue.Discard)
		return
	}

	if err := w.translate(ctx, message); err != nil {
		// leave a canceled translation unsettled; the broker redelivers
		// it once our channel closes
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		slog.Error(fmt.Sprintf("Task %s: file %s failed: %s",
			message.TaskId, message.FilePath, err.Error()))
		w.settle(ctx, message, err)
		// redelivery cannot fix a deterministic failure; discard so any
		// dead-letter routing still sees it
		delivery.Done(queue.Discard)
		return
	}
	delivery.Done(queue.Ack)
}

// translate rewrites one file in place and records its outcome.
func (w *FileWorker) translate(ctx context.Context, message FileMessage) error {
	err := w.options.Registry.SetFileStatus(ctx, message.TaskId, message.FileId,
		registry.FileTranslating)
	if err != nil {
		return err
	}

	path := filepath.Join(message.WorkDir, filepath.FromSlash(message.FilePath))
	doc, err := inifile.Load(path)
	if err != nil {
		return err
	}

	target := language.Resolve(message.TargetLanguage)
	rewriter := &inifile.Rewriter{
		Translator: &cachingTranslator{
			translator: w.options.Translator,
			registry:   w.options.Registry,
		},
		Style:  message.TranslateStyle,
		Target: target,
	}
	changed, err := rewriter.Rewrite(ctx, doc)
	if err != nil {
		return err
	}
	if changed {
		if err := doc.Store(); err != nil {
			return err
		}
	}

	slog.Debug(fmt.Sprintf("Task %s: file %s translated (changed: %t)",
		message.TaskId, message.FilePath, changed))
	return w.options.Registry.SetFileStatus(ctx, message.TaskId, message.FileId,
		registry.FileCompleted)
}

// settle records a failed file so the coordinator can count it.
func (w *FileWorker) settle(ctx context.Context, message FileMessage, cause error) {
	err := w.options.Registry.SetFileError(ctx, message.TaskId, message.FileId,
		cause.Error())
	if err != nil {
		slog.Error(fmt.Sprintf("Task %s: recording failure for file %s: %s",
			message.TaskId, message.FilePath, err.Error()))
	}
}

// cachingTranslator consults the shared translation cache before calling the
// model, so identical strings across files (and across tasks) are translated
// once.
type cachingTranslator struct {
	translator translator.Translator
	registry   registry.Registry
}

func (c *cachingTranslator) Translate(ctx context.Context, batch []string,
	style, targetLanguage string) ([]string, error) {
	out := make([]string, len(batch))
	missing := make([]int, 0, len(batch))
	for i, text := range batch {
		cached, ok, err := c.registry.CachedTranslation(ctx, targetLanguage, text)
		if err != nil {
			// a cache problem is never fatal; fall through to the model
			slog.Warn(fmt.Sprintf("Reading translation cache: %s", err.Error()))
		}
		if ok {
			out[i] = cached
		} else {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	uncached := make([]string, len(missing))
	for i, index := range missing {
		uncached[i] = batch[index]
	}
	translated, err := c.translator.Translate(ctx, uncached, style, targetLanguage)
	if err != nil {
		return nil, err
	}
	for i, index := range missing {
		out[index] = translated[i]
		err := c.registry.CacheTranslation(ctx, targetLanguage, batch[index], translated[i])
		if err != nil {
			slog.Warn(fmt.Sprintf("Writing translation cache: %s", err.Error()))
		}
	}
	return out, nil
}
