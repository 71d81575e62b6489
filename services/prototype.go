package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humamux"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/rustedworkshop/mts/blobstore"
	"github.com/rustedworkshop/mts/queue"
	"github.com/rustedworkshop/mts/tasks"
	"github.com/rustedworkshop/mts/workers"
)

// Version numbers
var majorVersion = 0
var minorVersion = 1
var patchVersion = 0

// Version string
var version = fmt.Sprintf("%d.%d.%d", majorVersion, minorVersion, patchVersion)

// the default name of an uploaded archive when the submitter gives none
const defaultArchiveName = "source.rwmod"

// the default and maximum page sizes for task listings
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// everything the service needs to do its job
type ServiceOptions struct {
	Store tasks.Store
	Queue queue.Queue
	Blobs blobstore.Store
	// name of the queue on which accepted tasks are announced
	TaskQueue string
	// bucket holding uploaded sources and translated results
	Bucket string
	// key prefixes for uploads and results within the bucket
	UploadPrefix string
	OutputPrefix string
	// lifetime of pre-signed upload and download URLs
	URLTTL time.Duration
	// maximum number of simultaneous client connections
	MaxConnections int
}

// This type implements the TranslationService interface, accepting mod
// archives for translation and reporting on their progress.
type prototype struct {
	// name of the service
	Name string
	// service version identifier
	Version string
	// time which the service was started
	StartTime time.Time
	// port on which the service currently runs
	Port int
	// router for REST endpoints
	Router *mux.Router
	// API wrapper
	API huma.API
	// HTTP server.
	Server *http.Server
	// collaborators and settings
	Options ServiceOptions
}

type ServiceInfoOutput struct {
	Body ServiceInfoResponse `doc:"information about the service itself"`
}

// handler method for root
func (service *prototype) getRoot(ctx context.Context,
	input *struct{}) (*ServiceInfoOutput, error) {

	slog.Info("Querying root endpoint...")
	return &ServiceInfoOutput{
		Body: ServiceInfoResponse{
			Name:          service.Name,
			Version:       service.Version,
			Uptime:        int(service.uptime()),
			Documentation: "/docs",
		},
	}, nil
}

type TaskOutput struct {
	Body   TaskResponse `doc:"A UUID and upload URL for the requested translation task"`
	Status int
}

// handler method for creating a translation task
func (service *prototype) createTask(ctx context.Context,
	input *struct {
		Body        TaskRequest `doc:"The body of a POST request for a translation task"`
		ContentType string      `header:"Content-Type" doc:"Content-Type header (must be application/json)"`
	}) (*TaskOutput, error) {

	if input.Body.TargetLanguage == "" {
		return nil, huma.Error400BadRequest("No target language was specified.")
	}

	taskId := uuid.New()
	filename := input.Body.Filename
	if filename == "" {
		filename = defaultArchiveName
	}
	filename = path.Base(filename) // no path tricks in object keys
	sourceKey := path.Join(service.Options.UploadPrefix, taskId.String(), filename)
	destKey := path.Join(service.Options.OutputPrefix, taskId.String(), "translated.rwmod")

	now := time.Now().UTC()
	err := service.Options.Store.Create(ctx, tasks.Task{
		Id:             taskId,
		SourceURL:      blobstore.URL(service.Options.Bucket, sourceKey),
		DestBucket:     service.Options.Bucket,
		DestKey:        destKey,
		TargetLanguage: input.Body.TargetLanguage,
		TranslateStyle: input.Body.TranslateStyle,
		Status:         tasks.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	uploadURL, err := service.Options.Blobs.PresignPut(ctx, service.Options.Bucket,
		sourceKey, service.Options.URLTTL, "application/zip")
	if err != nil {
		return nil, err
	}

	slog.Info(fmt.Sprintf("Created translation task %s (target language: %s)",
		taskId.String(), input.Body.TargetLanguage))
	return &TaskOutput{
		Body: TaskResponse{
			Id:        taskId,
			Status:    string(tasks.StatusPending),
			UploadURL: uploadURL,
		},
		Status: http.StatusCreated,
	}, nil
}

type TaskRunOutput struct {
	Body   TaskStatusResponse `doc:"The status of the started translation task"`
	Status int
}

// handler method for starting (or retrying) a translation task after its
// archive has been uploaded
func (service *prototype) runTask(ctx context.Context,
	input *struct {
		Id uuid.UUID `path:"id" example:"de9a2d6a-f5c9-4322-b8a7-8121d83fdfc2" doc:"the UUID for the translation task"`
	}) (*TaskRunOutput, error) {

	task, err := service.Options.Store.Get(ctx, input.Id)
	if err != nil {
		return nil, taskError(err)
	}

	switch task.Status {
	case tasks.StatusPending:
		// first run
	case tasks.StatusFailed:
		// a retry clears the previous run's outcome
		task, err = service.Options.Store.Update(ctx, input.Id,
			tasks.StatusTo(tasks.StatusPending))
		if err != nil {
			return nil, err
		}
	default:
		return nil, huma.Error409Conflict(
			fmt.Sprintf("The task %s is %s and cannot be run.",
				input.Id.String(), task.Status))
	}

	body, err := json.Marshal(workers.TaskMessage{
		TaskId:         task.Id.String(),
		SourceURL:      task.SourceURL,
		DestBucket:     task.DestBucket,
		DestKey:        task.DestKey,
		TargetLanguage: task.TargetLanguage,
		TranslateStyle: task.TranslateStyle,
	})
	if err != nil {
		return nil, err
	}
	err = service.Options.Queue.Publish(ctx, service.Options.TaskQueue, body)
	if err != nil {
		return nil, err
	}

	slog.Info(fmt.Sprintf("Task %s: queued for translation", input.Id.String()))
	return &TaskRunOutput{
		Body:   service.statusResponse(ctx, task),
		Status: http.StatusAccepted,
	}, nil
}

type TaskStatusOutput struct {
	Body TaskStatusResponse `doc:"A status message for the translation task with the given ID"`
}

// handler method for getting the status of a translation task
func (service *prototype) getTask(ctx context.Context,
	input *struct {
		Id uuid.UUID `path:"id" example:"de9a2d6a-f5c9-4322-b8a7-8121d83fdfc2" doc:"the UUID for the translation task"`
	}) (*TaskStatusOutput, error) {

	task, err := service.Options.Store.Get(ctx, input.Id)
	if err != nil {
		return nil, taskError(err)
	}
	return &TaskStatusOutput{
		Body: service.statusResponse(ctx, task),
	}, nil
}

type TaskListOutput struct {
	Body []TaskStatusResponse `doc:"A list of translation tasks, newest first"`
}

// handler method for listing translation tasks
func (service *prototype) getTasks(ctx context.Context,
	input *struct {
		Limit  int `query:"limit" example:"50" doc:"Limits the number of tasks returned"`
		Offset int `query:"offset" example:"100" doc:"Task listings begin at the given offset"`
	}) (*TaskListOutput, error) {

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	list, err := service.Options.Store.List(ctx, limit, input.Offset)
	if err != nil {
		return nil, err
	}
	output := &TaskListOutput{
		Body: make([]TaskStatusResponse, len(list)),
	}
	for i, task := range list {
		output.Body[i] = service.statusResponse(ctx, task)
	}
	return output, nil
}

type TaskDeletionOutput struct {
	Status int
}

// handler method for deleting a translation task record
func (service *prototype) deleteTask(ctx context.Context,
	input *struct {
		Id uuid.UUID `path:"id" example:"de9a2d6a-f5c9-4322-b8a7-8121d83fdfc2" doc:"the UUID for the translation task"`
	}) (*TaskDeletionOutput, error) {

	err := service.Options.Store.Delete(ctx, input.Id)
	if err != nil {
		return nil, taskError(err)
	}
	slog.Info(fmt.Sprintf("Task %s: deleted", input.Id.String()))
	return &TaskDeletionOutput{
		Status: http.StatusAccepted,
	}, nil
}

// builds the status response for a task, minting a download URL for
// completed results
func (service *prototype) statusResponse(ctx context.Context,
	task tasks.Task) TaskStatusResponse {
	response := TaskStatusResponse{
		Id:             task.Id.String(),
		Status:         string(task.Status),
		Progress:       task.Progress,
		TotalFiles:     task.TotalFiles,
		ProcessedFiles: task.ProcessedFiles,
		Message:        task.ErrorMessage,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		CompletedAt:    task.CompletedAt,
	}
	if task.Status == tasks.StatusCompleted {
		downloadURL, err := service.Options.Blobs.PresignGet(ctx, task.DestBucket,
			task.DestKey, service.Options.URLTTL)
		if err != nil {
			slog.Error(fmt.Sprintf("Task %s: minting download URL: %s",
				task.Id.String(), err.Error()))
		} else {
			response.DownloadURL = downloadURL
		}
	}
	return response
}

// maps task store errors to HTTP status errors
func taskError(err error) error {
	var notFound *tasks.NotFoundError
	if errors.As(err, &notFound) {
		return huma.Error404NotFound(err.Error())
	}
	var transition *tasks.InvalidTransitionError
	if errors.As(err, &transition) {
		return huma.Error409Conflict(err.Error())
	}
	return err
}

// returns the uptime for the service in seconds
func (service *prototype) uptime() float64 {
	return time.Since(service.StartTime).Seconds()
}

// constructs a prototype mod translation service with the given options
func NewPrototype(options ServiceOptions) (TranslationService, error) {

	// validate our options
	if options.Store == nil {
		return nil, fmt.Errorf("No task store was specified.")
	}
	if options.Queue == nil {
		return nil, fmt.Errorf("No message queue was specified.")
	}
	if options.Blobs == nil {
		return nil, fmt.Errorf("No object store was specified.")
	}
	if options.Bucket == "" {
		return nil, fmt.Errorf("No object store bucket was specified.")
	}

	service := new(prototype)
	service.Name = "MTS prototype"
	service.Version = version
	service.Port = -1
	service.Options = options

	// set up routing
	service.Router = mux.NewRouter()
	api := humamux.New(service.Router, huma.DefaultConfig(service.Name, service.Version))
	huma.Get(api, "/", service.getRoot)

	// API v1
	huma.Post(api, "/api/v1/tasks", service.createTask)
	huma.Get(api, "/api/v1/tasks", service.getTasks)
	huma.Get(api, "/api/v1/tasks/{id}", service.getTask)
	huma.Post(api, "/api/v1/tasks/{id}/run", service.runTask)
	huma.Delete(api, "/api/v1/tasks/{id}", service.deleteTask)
	AddDocEndpoints(service.Router)

	service.API = api
	return service, nil
}

// starts the prototype mod translation service
func (service *prototype) Start(port int) error {
	slog.Info(fmt.Sprintf("Starting %s service on port %d...", service.Name, port))
	slog.Info(fmt.Sprintf("(Accepting up to %d connections)", service.Options.MaxConnections))

	service.StartTime = time.Now()

	// create a listener that limits the number of incoming connections
	service.Port = port
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return err
	}
	defer listener.Close()
	listener = netutil.LimitListener(listener, service.Options.MaxConnections)

	// make sure the task queue exists before anyone posts to it
	err = service.Options.Queue.Declare(context.Background(), service.Options.TaskQueue)
	if err != nil {
		return err
	}

	// start the server
	service.Server = &http.Server{
		Handler: service.Router}
	err = service.Server.Serve(listener)

	// we don't report the server closing as an error
	if err != http.ErrServerClosed {
		return err
	}
	return nil
}

// gracefully shuts down the service without interrupting active connections
func (service *prototype) Shutdown(ctx context.Context) error {
	if service.Server != nil {
		return service.Server.Shutdown(ctx)
	}
	return nil
}

// closes down the service abruptly, freeing all resources
func (service *prototype) Close() {
	if service.Server != nil {
		service.Server.Close()
	}
}
