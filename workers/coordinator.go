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
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rustedworkshop/mts/archive"
	"github.com/rustedworkshop/mts/blobstore"
	"github.com/rustedworkshop/mts/inifile"
	"github.com/rustedworkshop/mts/journal"
	"github.com/rustedworkshop/mts/queue"
	"github.com/rustedworkshop/mts/registry"
	"github.com/rustedworkshop/mts/tasks"
	"github.com/rustedworkshop/mts/translator"
)

// the poll used while waiting for file workers to settle their files
const defaultPollInterval = 2 * time.Second

// progress checkpoints reported while a task moves through the pipeline
const (
	progressPreparing  = 5
	progressDownloaded = 10
	progressExtracted  = 15
	progressListed     = 20
	progressFinalizing = 90
	progressUploaded   = 95
	progressCompleted  = 100
)

// everything a Coordinator needs to do its job
type CoordinatorOptions struct {
	Store      tasks.Store
	Queue      queue.Queue
	Registry   registry.Registry
	Blobs      blobstore.Store
	Translator translator.Translator
	// names of the task and per-file queues
	TaskQueue string
	FileQueue string
	// directory in which archives are unpacked; shared with file workers
	WorkDirectory string
	// how often to poll the registry for file outcomes (default 2s)
	PollInterval time.Duration
	// number of unsettled task messages to hold at once
	Prefetch int
}

// A Coordinator consumes task messages and runs each translation task end to
// end: it stages the archive, fans its files out to workers, polls for their
// outcomes, and publishes the translated result.
type Coordinator struct {
	options CoordinatorOptions
}

// NewCoordinator creates a coordinator with the given options.
func NewCoordinator(options CoordinatorOptions) *Coordinator {
	if options.PollInterval <= 0 {
		options.PollInterval = defaultPollInterval
	}
	if options.Prefetch <= 0 {
		options.Prefetch = 1
	}
	return &Coordinator{options: options}
}

// Run consumes the task queue until the context is canceled.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.options.Queue.Declare(ctx, c.options.TaskQueue); err != nil {
		return err
	}
	if err := c.options.Queue.Declare(ctx, c.options.FileQueue); err != nil {
		return err
	}
	deliveries, err := c.options.Queue.Consume(ctx, c.options.TaskQueue,
		c.options.Prefetch)
	if err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("Coordinator consuming task messages from %s",
		c.options.TaskQueue))
	for delivery := range deliveries {
		c.handle(ctx, delivery)
	}
	return nil
}

func (c *Coordinator) handle(ctx context.Context, delivery queue.Delivery) {
	var message TaskMessage
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		slog.Error(fmt.Sprintf("Discarding malformed task message: %s", err.Error()))
		delivery.Done(queue.Discard)
		return
	}
	if err := c.process(ctx, message); err != nil {
		// leave a canceled run unsettled; the broker redelivers it once
		// our channel closes
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		slog.Error(fmt.Sprintf("Discarding task message %s: %s",
			message.TaskId, err.Error()))
		delivery.Done(queue.Discard)
		return
	}
	delivery.Done(queue.Ack)
}

// process runs one task to a terminal state. It returns a non-nil error only
// when the message itself is unusable (unknown task, bad ID); pipeline
// failures are recorded on the task instead.
func (c *Coordinator) process(ctx context.Context, message TaskMessage) error {
	taskId, err := uuid.Parse(message.TaskId)
	if err != nil {
		return err
	}
	task, err := c.options.Store.Get(ctx, taskId)
	if err != nil {
		return err
	}

	// a redelivered message for a task another coordinator already picked
	// up (or finished) is acknowledged without rerunning the work
	if task.Status != tasks.StatusPending {
		slog.Info(fmt.Sprintf("Task %s: already %s, skipping redelivered message",
			message.TaskId, task.Status))
		return nil
	}

	run := &taskRun{coordinator: c, message: message, id: taskId,
		started: time.Now().UTC()}
	defer run.cleanup()

	if err := run.execute(ctx); err != nil {
		// a canceled run is left in flight for the next coordinator
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		run.fail(ctx, err)
	}
	run.writeJournal()
	return nil
}

// taskRun carries the state of one in-flight task through the pipeline stages.
type taskRun struct {
	coordinator *Coordinator
	message     TaskMessage
	id          uuid.UUID
	started     time.Time
	workDir     string
	// file ID -> path relative to the unpacked archive root
	files map[string]string
	// outcome, filled in as the run settles
	status      tasks.Status
	totalFiles  int
	failedFiles int
}

func (run *taskRun) execute(ctx context.Context) error {
	options := run.coordinator.options

	if err := run.update(ctx, tasks.Update{
		Status:   statusPtr(tasks.StatusPreparing),
		Progress: progressPtr(progressPreparing),
	}); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("Task %s: preparing archive from %s",
		run.message.TaskId, run.message.SourceURL))

	run.workDir = filepath.Join(options.WorkDirectory, run.id.String())
	_, sourceKey, err := blobstore.ParseURL(run.message.SourceURL)
	if err != nil {
		return err
	}
	archivePath := filepath.Join(run.workDir, path.Base(sourceKey))
	if err := options.Blobs.Download(ctx, run.message.SourceURL, archivePath); err != nil {
		return fmt.Errorf("downloading source archive: %w", err)
	}
	if err := run.update(ctx, tasks.Update{Progress: progressPtr(progressDownloaded)}); err != nil {
		return err
	}

	contentDir := filepath.Join(run.workDir, "content")
	if err := archive.Extract(archivePath, contentDir); err != nil {
		return fmt.Errorf("unpacking source archive: %w", err)
	}
	if err := run.update(ctx, tasks.Update{Progress: progressPtr(progressExtracted)}); err != nil {
		return err
	}

	relPaths, err := inifile.FindTranslatable(contentDir)
	if err != nil {
		return err
	}
	run.totalFiles = len(relPaths)
	if err := run.update(ctx, tasks.Update{
		Progress:   progressPtr(progressListed),
		TotalFiles: &run.totalFiles,
	}); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("Task %s: found %d translatable file(s)",
		run.message.TaskId, run.totalFiles))

	style := styleHint(ctx, options.Translator, run.message.TranslateStyle,
		contentDir, relPaths)

	if err := run.update(ctx, tasks.StatusTo(tasks.StatusTranslating)); err != nil {
		return err
	}
	if len(relPaths) > 0 {
		if err := run.fanOut(ctx, contentDir, relPaths, style); err != nil {
			return err
		}
		if err := run.awaitWorkers(ctx); err != nil {
			return err
		}
	}

	// a run with failed files goes straight to failed; it never finalizes
	// and nothing is uploaded
	if run.failedFiles > 0 {
		return fmt.Errorf("%d files failed", run.failedFiles)
	}
	if err := run.update(ctx, tasks.Update{
		Status:   statusPtr(tasks.StatusFinalizing),
		Progress: progressPtr(progressFinalizing),
	}); err != nil {
		return err
	}

	resultPath := filepath.Join(run.workDir, "translated.zip")
	if err := archive.Pack(contentDir, resultPath); err != nil {
		return fmt.Errorf("packing translated archive: %w", err)
	}
	resultURL, err := options.Blobs.Upload(ctx, resultPath,
		run.message.DestBucket, run.message.DestKey)
	if err != nil {
		return fmt.Errorf("uploading translated archive: %w", err)
	}
	if err := run.update(ctx, tasks.Update{Progress: progressPtr(progressUploaded)}); err != nil {
		return err
	}

	if err := run.update(ctx, tasks.Update{
		Status:   statusPtr(tasks.StatusCompleted),
		Progress: progressPtr(progressCompleted),
	}); err != nil {
		return err
	}
	run.status = tasks.StatusCompleted
	slog.Info(fmt.Sprintf("Task %s: completed, result at %s",
		run.message.TaskId, resultURL))
	return nil
}

// fanOut publishes one file message per translatable file.
func (run *taskRun) fanOut(ctx context.Context, contentDir string,
	relPaths []string, style string) error {
	options := run.coordinator.options
	run.files = make(map[string]string, len(relPaths))
	for _, relPath := range relPaths {
		fileId := uuid.New().String()
		run.files[fileId] = relPath
		body, err := json.Marshal(FileMessage{
			TaskId:         run.message.TaskId,
			FileId:         fileId,
			FilePath:       relPath,
			WorkDir:        contentDir,
			TargetLanguage: run.message.TargetLanguage,
			TranslateStyle: style,
		})
		if err != nil {
			return err
		}
		if err := options.Queue.Publish(ctx, options.FileQueue, body); err != nil {
			return fmt.Errorf("dispatching file %s: %w", relPath, err)
		}
	}
	return nil
}

// awaitWorkers polls the registry until every fanned-out file has been
// settled by a worker, reporting proportional progress as files finish.
func (run *taskRun) awaitWorkers(ctx context.Context) error {
	options := run.coordinator.options
	ticker := time.NewTicker(options.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		settled, completed, failed := 0, 0, 0
		for fileId := range run.files {
			status, err := options.Registry.FileStatus(ctx, run.message.TaskId, fileId)
			if err != nil {
				return err
			}
			switch status {
			case registry.FileCompleted:
				settled++
				completed++
			case registry.FileFailed:
				settled++
				failed++
			}
		}

		// progress and processed_files track successful files only; failures
		// surface through the task's error summary instead
		progress := progressListed + (progressFinalizing-progressListed)*
			float64(completed)/float64(len(run.files))
		if err := run.update(ctx, tasks.Update{
			Progress:       &progress,
			ProcessedFiles: &completed,
		}); err != nil {
			return err
		}
		if settled == len(run.files) {
			run.failedFiles = failed
			return nil
		}
	}
}

// fail records the cause of a failed run on the task.
func (run *taskRun) fail(ctx context.Context, cause error) {
	slog.Error(fmt.Sprintf("Task %s: %s", run.message.TaskId, cause.Error()))
	message := cause.Error()
	err := run.update(ctx, tasks.Update{
		Status:       statusPtr(tasks.StatusFailed),
		ErrorMessage: &message,
	})
	if err != nil {
		slog.Error(fmt.Sprintf("Task %s: recording failure: %s",
			run.message.TaskId, err.Error()))
	}
	run.status = tasks.StatusFailed
}

func (run *taskRun) update(ctx context.Context, update tasks.Update) error {
	_, err := run.coordinator.options.Store.Update(ctx, run.id, update)
	return err
}

// writeJournal records the finished run in the local audit journal, if one
// is open. Journal trouble never affects the task itself.
func (run *taskRun) writeJournal() {
	if !journal.IsOpen() || !run.status.Terminal() {
		return
	}
	err := journal.RecordRun(journal.Record{
		Id:             run.id,
		SourceURL:      run.message.SourceURL,
		TargetLanguage: run.message.TargetLanguage,
		Status:         string(run.status),
		TotalFiles:     run.totalFiles,
		FailedFiles:    run.failedFiles,
		StartTime:      run.started,
		StopTime:       time.Now().UTC(),
	})
	if err != nil {
		slog.Error(fmt.Sprintf("Task %s: writing journal record: %s",
			run.message.TaskId, err.Error()))
	}
}

// cleanup removes the run's working directory on every exit path.
func (run *taskRun) cleanup() {
	if run.workDir == "" {
		return
	}
	if err := os.RemoveAll(run.workDir); err != nil {
		slog.Error(fmt.Sprintf("Task %s: removing work directory: %s",
			run.message.TaskId, err.Error()))
	}
}

func statusPtr(status tasks.Status) *tasks.Status {
	return &status
}

func progressPtr(progress float64) *float64 {
	return &progress
}
