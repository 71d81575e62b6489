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

// Package workers runs the two consumer tiers of the translation pipeline:
// coordinators, which take whole-archive task messages and fan their files
// out, and file workers, which translate a single config file each. A janitor
// sweeps up expired task records and abandoned working directories.
package workers

// TaskMessage asks a coordinator to run one translation task end to end.
type TaskMessage struct {
	TaskId         string `json:"task_id"`
	SourceURL      string `json:"s3_source_url"`
	DestBucket     string `json:"s3_dest_bucket"`
	DestKey        string `json:"s3_dest_key"`
	TargetLanguage string `json:"target_language"`
	TranslateStyle string `json:"translate_style,omitempty"`
}

// FileMessage asks a file worker to translate one file of an unpacked
// archive in place.
type FileMessage struct {
	TaskId string `json:"task_id"`
	FileId string `json:"file_id"`
	// path of the file relative to the unpacked archive root, with
	// forward slashes
	FilePath string `json:"file_path"`
	// absolute path of the unpacked archive root on the shared work volume
	WorkDir        string `json:"work_dir"`
	TargetLanguage string `json:"target_language"`
	TranslateStyle string `json:"translate_style,omitempty"`
}
