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

package journal

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// This is the translation journal, a local audit log of every finished
// translation run. The journal is a table of run records (one per terminal
// task transition).

// a record storing all information relevant to a finished translation run
type Record struct {
	// UUID associated with the translation task
	Id uuid.UUID `json:"id"`
	// the s3:// URL of the source archive
	SourceURL string `json:"source_url"`
	// the requested target language, as submitted
	TargetLanguage string `json:"target_language"`
	// outcome of the run ("completed" or "failed")
	Status string `json:"status"`
	// number of translatable files found, and how many of them failed
	TotalFiles  int `json:"total_files"`
	FailedFiles int `json:"failed_files"`
	// times at which the run started and finished
	StartTime time.Time `json:"start_time"`
	StopTime  time.Time `json:"stop_time"`
}

// opens the translation journal in the given data directory
func Init(dataDirectory string) error {
	if !IsOpen() {
		go journalProcess(filepath.Join(dataDirectory, "translation_journal.db"))
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

// saves and closes the translation journal (if it's been opened)
func Finalize() error {
	if IsOpen() {
		channels_.Input.Shutdown <- struct{}{}
		closeChannels()
	}
	return nil
}

// returns true if the journal is open for writing, false if not
func IsOpen() bool {
	if channels_.Open { // has Init() been called?
		channels_.Input.CheckIfOpen <- struct{}{}
		select {
		case isOpen := <-channels_.Output.IsOpen:
			return isOpen
		case <-time.After(1 * time.Second): // after a second, we assume the goroutine has crashed
			closeChannels()
			return false
		}
	}
	return false
}

// records a finished translation run
// record: the record containing all run information
func RecordRun(record Record) error {
	switch record.Status {
	case "completed", "failed":
		// pass-through (see below)
	default:
		return &NewRecordError{
			Id:      record.Id,
			Message: "Invalid status: " + record.Status,
		}
	}

	if !IsOpen() {
		return &NotOpenError{}
	}

	channels_.Input.CreateRecord <- record
	return <-channels_.Output.Error
}

// retrieves records for runs that finished within the time range with the
// given (inclusive) bounds
// start: the beginning of the time period of interest
// stop: the end of the time period of interest
func Records(start, stop time.Time) ([]Record, error) {
	if !IsOpen() {
		return nil, &NotOpenError{}
	}
	channels_.Input.FetchRecords <- TimeRange{Start: start, Stop: stop}
	var records []Record
	var err error
	select {
	case records = <-channels_.Output.Records:
		return records, err
	case err = <-channels_.Output.Error:
		return records, err
	}
}

//-----------
// Internals
//-----------

// The journal gets its own goroutine so it doesn't bring down the entire
// service if it crashes. Here we define "input" channels (main process ->
// goroutine) and "output" channels (goroutine -> main process) for passing
// data back and forth

type TimeRange struct {
	Start, Stop time.Time
}

var channels_ struct {
	Open  bool // true if channels are open, false if not
	Input struct {
		CreateRecord chan Record    // for creating new records
		CheckIfOpen  chan struct{}  // for checking to see whether the database is open
		FetchRecords chan TimeRange // for fetching records within a time range
		Shutdown     chan struct{}  // for shutting down the database
	}

	Output struct {
		Records chan []Record // for returning records
		Error   chan error    // for returning errors
		IsOpen  chan bool     // for answering queries about whether the database is open
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	task_id         TEXT NOT NULL,
	source_url      TEXT NOT NULL,
	target_language TEXT NOT NULL,
	status          TEXT NOT NULL,
	total_files     INTEGER NOT NULL,
	failed_files    INTEGER NOT NULL,
	start_time      TEXT NOT NULL,
	stop_time       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_stop_time ON runs (stop_time);
`

func journalProcess(dbPath string) {

	// open the database, creating the schema if necessary
	conn, err := sqlite.OpenConn(dbPath, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		channels_.Output.Error <- &CantOpenError{
			Message: err.Error(),
		}
		return
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		channels_.Output.Error <- &CantOpenError{
			Message: err.Error(),
		}
		return
	}

	openChannels()

	// handle requests
	running := true
	for running {
		select {

		case <-channels_.Input.CheckIfOpen:
			channels_.Output.IsOpen <- true // always true if this goroutine is running!

		case record := <-channels_.Input.CreateRecord:
			err := createRecord(conn, record)
			channels_.Output.Error <- err

		case timeRange := <-channels_.Input.FetchRecords:
			records, err := fetchRecords(conn, timeRange.Start, timeRange.Stop)
			if err != nil {
				channels_.Output.Error <- err
			} else {
				channels_.Output.Records <- records
			}

		case <-channels_.Input.Shutdown:
			err := conn.Close()
			if err != nil {
				channels_.Output.Error <- &CantCloseError{
					Message: err.Error(),
				}
			}
			running = false
		}
	}
}

func openChannels() {
	channels_.Open = true
	channels_.Input.CreateRecord = make(chan Record)
	channels_.Input.CheckIfOpen = make(chan struct{})
	channels_.Input.FetchRecords = make(chan TimeRange)
	channels_.Input.Shutdown = make(chan struct{})
	channels_.Output.Records = make(chan []Record)
	channels_.Output.Error = make(chan error)
	channels_.Output.IsOpen = make(chan bool)
}

func closeChannels() {
	channels_.Open = false
	close(channels_.Input.CreateRecord)
	close(channels_.Input.CheckIfOpen)
	close(channels_.Input.FetchRecords)
	close(channels_.Input.Shutdown)
	close(channels_.Output.Records)
	close(channels_.Output.Error)
	close(channels_.Output.IsOpen)
}

func createRecord(conn *sqlite.Conn, record Record) error {
	err := sqlitex.Execute(conn, `
		INSERT INTO runs (task_id, source_url, target_language, status,
			total_files, failed_files, start_time, stop_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				record.Id.String(), record.SourceURL, record.TargetLanguage,
				record.Status, record.TotalFiles, record.FailedFiles,
				record.StartTime.UTC().Format(time.RFC3339),
				record.StopTime.UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return &NewRecordError{
			Id:      record.Id,
			Message: err.Error(),
		}
	}
	return nil
}

func fetchRecords(conn *sqlite.Conn, start, stop time.Time) ([]Record, error) {
	records := make([]Record, 0)
	err := sqlitex.Execute(conn, `
		SELECT task_id, source_url, target_language, status, total_files,
			failed_files, start_time, stop_time
		FROM runs WHERE stop_time >= ? AND stop_time <= ?
		ORDER BY stop_time`,
		&sqlitex.ExecOptions{
			Args: []any{
				start.UTC().Format(time.RFC3339),
				stop.UTC().Format(time.RFC3339),
			},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				id, err := uuid.Parse(stmt.ColumnText(0))
				if err != nil {
					return &InvalidRecordError{Message: err.Error()}
				}
				startTime, err := time.Parse(time.RFC3339, stmt.ColumnText(6))
				if err != nil {
					return &InvalidRecordError{Id: id, Message: err.Error()}
				}
				stopTime, err := time.Parse(time.RFC3339, stmt.ColumnText(7))
				if err != nil {
					return &InvalidRecordError{Id: id, Message: err.Error()}
				}
				records = append(records, Record{
					Id:             id,
					SourceURL:      stmt.ColumnText(1),
					TargetLanguage: stmt.ColumnText(2),
					Status:         stmt.ColumnText(3),
					TotalFiles:     stmt.ColumnInt(4),
					FailedFiles:    stmt.ColumnInt(5),
					StartTime:      startTime,
					StopTime:       stopTime,
				})
				return nil
			},
		})
	return records, err
}
