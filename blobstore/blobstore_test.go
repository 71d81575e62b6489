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

package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseURL(t *testing.T) {
	assert := assert.New(t)

	bucket, key, err := ParseURL("s3://translation-tasks/uploads/abc/source.rwmod")
	assert.Nil(err)
	assert.Equal("translation-tasks", bucket)
	assert.Equal("uploads/abc/source.rwmod", key)

	// the key may itself contain slashes; only the first split counts
	bucket, key, err = ParseURL("s3://b/a/b/c")
	assert.Nil(err)
	assert.Equal("b", bucket)
	assert.Equal("a/b/c", key)
}

func TestParseURLRejectsMalformedURLs(t *testing.T) {
	assert := assert.New(t)
	for _, bad := range []string{
		"",
		"https://bucket.s3.amazonaws.com/key",
		"s3://bucket-only",
		"s3:///key-only",
		"s3://",
	} {
		_, _, err := ParseURL(bad)
		assert.NotNil(err, "url %q", bad)
		var invalid *InvalidURLError
		assert.ErrorAs(err, &invalid)
	}
}

func TestURLRoundTrip(t *testing.T) {
	assert := assert.New(t)
	url := URL("bucket", "outputs/task/translated.rwmod")
	assert.Equal("s3://bucket/outputs/task/translated.rwmod", url)
	bucket, key, err := ParseURL(url)
	assert.Nil(err)
	assert.Equal("bucket", bucket)
	assert.Equal("outputs/task/translated.rwmod", key)
}
