package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// This package-specific helper function writes a JSON payload to an
// http.ResponseWriter.
func writeJson(w http.ResponseWriter, data []byte, code int) {
	w.WriteHeader(code)
	if len(data) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

// this type encodes a JSON object for responding to root queries
type ServiceInfoResponse struct {
	Name          string `json:"name" example:"MTS" doc:"The name of the service API"`
	Version       string `json:"version" example:"1.0.0" doc:"The version string (major.minor.patch)"`
	Uptime        int    `json:"uptime" example:"345600" doc:"The time the service has been up (seconds)"`
	Documentation string `json:"documentation" example:"/docs" doc:"The OpenAPI documentation endpoint"`
}

// This type holds information about an error that occurred responding to a
// request.
type ErrorResponse struct {
	// An HTTP error code
	Code int `json:"code"`
	// A descriptive error message
	Error string `json:"message"`
}

// This package-specific helper function writes an error to an
// http.ResponseWriter, giving it the proper status code, and encoding an
// ErrorResponse in the response body.
func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	e := ErrorResponse{Code: code, Error: message}
	data, _ := json.Marshal(e)
	w.Write(data)
}

// a request for a new translation task (POST)
type TaskRequest struct {
	// the language mod text is translated into
	TargetLanguage string `json:"target_language" example:"中文" doc:"the target language for translated text"`
	// an optional style hint passed to the translator
	TranslateStyle string `json:"translate_style,omitempty" doc:"(optional) a style hint steering the translation"`
	// an optional name for the uploaded archive
	Filename string `json:"filename,omitempty" example:"mymod.rwmod" doc:"(optional) the name of the archive to be uploaded"`
}

// a response for a new translation task request (POST)
type TaskResponse struct {
	// translation task ID
	Id uuid.UUID `json:"id" doc:"a UUID for the requested translation task"`
	// initial task status
	Status string `json:"status" example:"pending"`
	// URL to which the source archive should be uploaded with an HTTP PUT
	UploadURL string `json:"upload_url" doc:"a pre-signed URL accepting the source archive via PUT"`
}

// a response for a translation task status request (GET)
type TaskStatusResponse struct {
	// translation task ID
	Id string `json:"id"`
	// translation task status
	Status string `json:"status"`
	// coarse completion estimate, 0 to 100
	Progress float64 `json:"progress"`
	// number of translatable files found in the archive
	TotalFiles int `json:"total_files"`
	// number of files whose outcome has been recorded
	ProcessedFiles int `json:"processed_files"`
	// message (if any) describing a failure
	Message string `json:"message,omitempty"`
	// URL from which the translated archive can be fetched (completed tasks)
	DownloadURL string `json:"download_url,omitempty"`
	// task lifecycle timestamps
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TranslationService defines the interface for our mod translation service.
type TranslationService interface {
	// Starts the service on the selected port, returning an error that indicates
	// success or failure.
	Start(port int) error
	// Gracefully shuts down the service without interrupting active connections.
	Shutdown(ctx context.Context) error
	// Closes down the service, freeing all resources.
	Close()
}
