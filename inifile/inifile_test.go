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

package inifile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

func TestTranslatableKey(t *testing.T) {
	assert := assert.New(t)
	for _, key := range []string{
		"description", "Title", "displayDescription", "text", "displayText",
		"isLockedAltMessage", "cannotPlaceMessage", "displayName",
		"displayNameShort", "showMessageToPlayer", "showMessageToAllPlayers",
		"action_0_text", "action_12_displayName", "ACTION_3_TEXT",
	} {
		assert.True(TranslatableKey(key), "key %q", key)
	}
	for _, key := range []string{
		"speed", "onDeath", "maxHealth", "description_zh", "title_ru",
		"action_text", "action_x_text", "setUnitMemory", "name",
	} {
		assert.False(TranslatableKey(key), "key %q", key)
	}
}

func TestSplitLocalizedKey(t *testing.T) {
	assert := assert.New(t)

	base, tag, ok := SplitLocalizedKey("description_zh")
	assert.True(ok)
	assert.Equal("description", base)
	assert.Equal("zh", tag)

	base, tag, ok = SplitLocalizedKey("title_zh_cn")
	assert.True(ok)
	assert.Equal("title", base)
	assert.Equal("zh_cn", tag)

	base, tag, ok = SplitLocalizedKey("action_1_text_ru")
	assert.True(ok)
	assert.Equal("action_1_text", base)
	assert.Equal("ru", tag)

	// a 4-letter suffix is not a language tag
	_, _, ok = SplitLocalizedKey("text_fire")
	assert.False(ok)

	_, _, ok = SplitLocalizedKey("speed_zh")
	assert.False(ok)

	_, _, ok = SplitLocalizedKey("description")
	assert.False(ok)
}

func TestParseClassifiesLines(t *testing.T) {
	assert := assert.New(t)
	doc, err := Parse([]byte("# comment\n\n[core]\nname: Tank\nspeed=3\n  ; note\n"))
	assert.Nil(err)
	assert.Len(doc.Lines, 6)
	assert.Equal(LineComment, doc.Lines[0].Kind)
	assert.Equal(LineBlank, doc.Lines[1].Kind)
	assert.Equal(LineSection, doc.Lines[2].Kind)
	assert.Equal(LineKeyValue, doc.Lines[3].Kind)
	assert.Equal(":", doc.Lines[3].Sep)
	assert.Equal("core", doc.Lines[3].Section)
	assert.Equal(LineKeyValue, doc.Lines[4].Kind)
	assert.Equal("=", doc.Lines[4].Sep)
	assert.Equal(LineComment, doc.Lines[5].Kind)
	assert.True(doc.TrailingTerminator)
}

func TestParseTracksTripleQuoteBlocks(t *testing.T) {
	assert := assert.New(t)
	content := "[a]\nsetUnitMemory:\"\"\"\nif self.height<=1.4 then\n  memory.x = 1\n\"\"\"\ntitle: Hello\n"
	doc, err := Parse([]byte(content))
	assert.Nil(err)
	// the opening line and everything through the closing line are raw
	assert.Equal(LineRaw, doc.Lines[1].Kind)
	assert.Equal(LineRaw, doc.Lines[2].Kind)
	assert.Equal(LineRaw, doc.Lines[3].Kind)
	assert.Equal(LineRaw, doc.Lines[4].Kind)
	// parsing resumes after the block closes
	assert.Equal(LineKeyValue, doc.Lines[5].Kind)
	assert.Equal("title", doc.Lines[5].Key)
	assert.False(doc.UnclosedBlock)
}

func TestParseUnclosedBlockIsPreserved(t *testing.T) {
	assert := assert.New(t)
	content := "[a]\nsetUnitMemory:\"\"\"\nnever closed\n"
	doc, err := Parse([]byte(content))
	assert.Nil(err)
	assert.True(doc.UnclosedBlock)
	assert.Equal(content, doc.Render())
}

func TestRenderReproducesTerminators(t *testing.T) {
	assert := assert.New(t)

	crlf := "[a]\r\ntitle: Hi\r\nspeed: 3\r\n"
	doc, err := Parse([]byte(crlf))
	assert.Nil(err)
	assert.Equal("\r\n", doc.Terminator)
	assert.Equal(crlf, doc.Render())

	noTrailing := "[a]\ntitle: Hi"
	doc, err = Parse([]byte(noTrailing))
	assert.Nil(err)
	assert.False(doc.TrailingTerminator)
	assert.Equal(noTrailing, doc.Render())
}

func TestDecodeGBK(t *testing.T) {
	assert := assert.New(t)
	encoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(),
		[]byte("[a]\ntitle_zh: 你好\n"))
	assert.Nil(err)
	doc, err := Parse(encoded)
	assert.Nil(err)
	assert.Equal("title_zh", doc.Lines[1].Key)
	assert.Equal("你好", doc.Lines[1].Value)
}

func TestStoreIsAtomicAndRoundTrips(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ini")
	content := "[CORE]\ntitle: Hello\nspeed: 3\n"
	assert.Nil(os.WriteFile(path, []byte(content), 0644))

	doc, err := Load(path)
	assert.Nil(err)
	assert.Nil(doc.Store())

	after, err := os.ReadFile(path)
	assert.Nil(err)
	assert.Equal(content, string(after))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	assert.Nil(err)
	assert.Len(entries, 1)
}

func TestFindTranslatable(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	for _, name := range []string{
		"units/tank.ini",
		"units/tank.template",
		"mod-info.txt",
		"units/tank.png",
		"readme.md",
	} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		assert.Nil(os.MkdirAll(filepath.Dir(path), 0755))
		assert.Nil(os.WriteFile(path, []byte("x"), 0644))
	}

	paths, err := FindTranslatable(dir)
	assert.Nil(err)
	assert.ElementsMatch(
		[]string{"units/tank.ini", "units/tank.template", "mod-info.txt"}, paths)
	for _, p := range paths {
		assert.False(strings.Contains(p, "\\"))
	}
}
