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

package translator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassthroughWithoutCredentials(t *testing.T) {
	assert := assert.New(t)
	tr := New(Options{Model: "gpt-4o-mini"}) // no API key

	out, err := tr.Translate(context.Background(),
		[]string{"Hello", "A red tank."}, "", "中文")
	assert.Nil(err)
	assert.Equal([]string{"Hello", "A red tank."}, out)

	style, err := tr.AnalyzeStyle(context.Background(), "sample")
	assert.Nil(err)
	assert.Equal(NeutralStyle, style)
}

func TestNumberedList(t *testing.T) {
	assert := assert.New(t)
	list := numberedList([]string{"Hello", "Fire!"})
	assert.Equal("1. Hello\n2. Fire!\n", list)
}

func TestParseBatchResponse(t *testing.T) {
	assert := assert.New(t)

	out, err := parseBatchResponse(`["你好", "开火！"]`, 2)
	assert.Nil(err)
	assert.Equal([]string{"你好", "开火！"}, out)

	// fenced code block is tolerated
	out, err = parseBatchResponse("```json\n[\"你好\"]\n```", 1)
	assert.Nil(err)
	assert.Equal([]string{"你好"}, out)

	out, err = parseBatchResponse("```\n[\"你好\"]\n```\n", 1)
	assert.Nil(err)
	assert.Equal([]string{"你好"}, out)
}

func TestParseBatchResponseLengthMismatch(t *testing.T) {
	assert := assert.New(t)
	_, err := parseBatchResponse(`["你好"]`, 2)
	assert.NotNil(err)
	var mismatch *LengthMismatchError
	assert.ErrorAs(err, &mismatch)
	assert.Equal(2, mismatch.Want)
	assert.Equal(1, mismatch.Got)
}

func TestParseBatchResponseMalformed(t *testing.T) {
	assert := assert.New(t)
	for _, content := range []string{
		"Sure! Here are the translations: 你好",
		`{"1": "你好"}`,
		"",
	} {
		_, err := parseBatchResponse(content, 1)
		assert.NotNil(err, "content %q", content)
		var malformed *MalformedResponseError
		assert.ErrorAs(err, &malformed)
	}
}

func TestTranslateSystemPromptStatesContract(t *testing.T) {
	assert := assert.New(t)
	prompt := translateSystemPrompt(7, "中文", "terse military tone")
	assert.Contains(prompt, "7")
	assert.Contains(prompt, "中文")
	assert.Contains(prompt, "JSON array")
	assert.Contains(prompt, "terse military tone")
}
