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
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustedworkshop/mts/language"
)

// a translator backed by a fixed mapping; unmapped strings pass through
type mapTranslator struct {
	mapping map[string]string
	batches [][]string
}

func (t *mapTranslator) Translate(ctx context.Context, batch []string,
	style, targetLanguage string) ([]string, error) {
	t.batches = append(t.batches, batch)
	out := make([]string, len(batch))
	for i, source := range batch {
		if translated, found := t.mapping[source]; found {
			out[i] = translated
		} else {
			out[i] = source
		}
	}
	return out, nil
}

func newRewriter(mapping map[string]string, target string) (*Rewriter, *mapTranslator) {
	translator := &mapTranslator{mapping: mapping}
	return &Rewriter{
		Translator: translator,
		Target:     language.Resolve(target),
	}, translator
}

func rewrite(t *testing.T, rw *Rewriter, content string) (*Document, bool) {
	doc, err := Parse([]byte(content))
	assert.Nil(t, err)
	changed, err := rw.Rewrite(context.Background(), doc)
	assert.Nil(t, err)
	return doc, changed
}

func TestRewriteInsertsLocalizedKeys(t *testing.T) {
	assert := assert.New(t)
	rw, _ := newRewriter(map[string]string{
		"Hello":       "你好",
		"A red tank.": "一辆红色坦克。",
	}, "zh-CN")

	doc, changed := rewrite(t, rw, "[CORE]\ntitle: Hello\ndescription: A red tank.\nspeed: 3\n")
	assert.True(changed)

	lines := strings.Split(strings.TrimSuffix(doc.Render(), "\n"), "\n")
	assert.Equal([]string{
		"[CORE]",
		"title: Hello",
		"title_zh: 你好",
		"title_zh_cn: 你好",
		"title_cn: 你好",
		"description: A red tank.",
		"description_zh: 一辆红色坦克。",
		"description_zh_cn: 一辆红色坦克。",
		"description_cn: 一辆红色坦克。",
		"speed: 3",
	}, lines)
}

func TestRewritePreservesSeparatorAndIndent(t *testing.T) {
	assert := assert.New(t)
	rw, _ := newRewriter(map[string]string{"Fire!": "开火！"}, "zh")

	doc, _ := rewrite(t, rw, "[a]\n  text = Fire!\n")
	lines := strings.Split(strings.TrimSuffix(doc.Render(), "\n"), "\n")
	assert.Equal("  text = Fire!", lines[1])
	assert.Equal("  text_zh = 开火！", lines[2])
}

func TestRewriteNeverTouchesNonAllowListedKeys(t *testing.T) {
	assert := assert.New(t)
	rw, _ := newRewriter(map[string]string{}, "zh")

	content := "[weapon]\nonDeath: if self.height<=1.4 then boom\nreload: self.timeAlive>=10\n"
	doc, changed := rewrite(t, rw, content)
	assert.False(changed)
	rendered := doc.Render()
	assert.Contains(rendered, "self.height<=1.4")
	assert.Contains(rendered, "self.timeAlive>=10")
	assert.Equal(content, rendered)
}

func TestRewritePreservesTripleQuoteBlocks(t *testing.T) {
	assert := assert.New(t)
	rw, _ := newRewriter(map[string]string{"Hi": "嗨"}, "zh")

	block := "setUnitMemory:\"\"\"\ndescription: looks like text but is code\nline two\n\"\"\""
	content := "[a]\n" + block + "\ntitle: Hi\n"
	doc, changed := rewrite(t, rw, content)
	assert.True(changed)

	rendered := doc.Render()
	assert.Contains(rendered, block)
	// internal line count of the block is unchanged
	assert.Equal(strings.Count(content, "\n")+3, strings.Count(rendered, "\n"))
}

func TestRewriteUsesLocalizedSiblingAsSource(t *testing.T) {
	assert := assert.New(t)
	rw, _ := newRewriter(map[string]string{"Привет": "你好"}, "zh")

	doc, changed := rewrite(t, rw, "[a]\ntitle:\ntitle_ru: Привет\n")
	assert.True(changed)
	rendered := doc.Render()
	assert.Contains(rendered, "title_zh: 你好")
	// the empty base line and the Russian sibling survive untouched
	assert.Contains(rendered, "title:\n")
	assert.Contains(rendered, "title_ru: Привет")
}

func TestRewriteOverwritesSamePrimarySibling(t *testing.T) {
	assert := assert.New(t)
	rw, _ := newRewriter(map[string]string{"Hello": "你好"}, "zh-CN")

	doc, changed := rewrite(t, rw, "[a]\ntitle: Hello\ntitle_zh: 旧译文\n")
	assert.True(changed)
	rendered := doc.Render()
	assert.Contains(rendered, "title_zh: 你好")
	// no duplicate insertions when a same-language sibling exists
	assert.NotContains(rendered, "title_zh_cn")
	assert.NotContains(rendered, "title_cn")
	assert.Equal(1, strings.Count(rendered, "你好"))
}

func TestRewriteIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	mapping := map[string]string{"Hello": "你好", "A red tank.": "一辆红色坦克。"}

	rw, _ := newRewriter(mapping, "zh-CN")
	doc, changed := rewrite(t, rw, "[CORE]\ntitle: Hello\ndescription: A red tank.\n")
	assert.True(changed)
	first := doc.Render()

	rw2, _ := newRewriter(mapping, "zh-CN")
	doc2, changed := rewrite(t, rw2, first)
	assert.False(changed)
	assert.Equal(first, doc2.Render())
}

func TestRewriteBatchesUniqueSources(t *testing.T) {
	assert := assert.New(t)
	rw, translator := newRewriter(map[string]string{"Hello": "你好"}, "zh")

	rewrite(t, rw, "[a]\ntitle: Hello\n[b]\ntitle: Hello\ndescription: Hello\n")
	assert.Len(translator.batches, 1)
	assert.Equal([]string{"Hello"}, translator.batches[0])
}

func TestRewriteEmptyBatchSkipsTranslator(t *testing.T) {
	assert := assert.New(t)
	rw, translator := newRewriter(map[string]string{}, "zh")

	_, changed := rewrite(t, rw, "[a]\nspeed: 3\nmaxHealth: 100\n")
	assert.False(changed)
	assert.Empty(translator.batches)
}

func TestRewriteSanitizesMultilineTranslations(t *testing.T) {
	assert := assert.New(t)
	rw, _ := newRewriter(map[string]string{"Hi": "line1\nline2\r\nline3"}, "zh")

	doc, _ := rewrite(t, rw, "[a]\ntitle: Hi\n")
	rendered := doc.Render()
	assert.Contains(rendered, `title_zh: line1\nline2\nline3`)
	// still one physical line per key
	assert.Equal(5, len(strings.Split(strings.TrimSuffix(rendered, "\n"), "\n")))
}

func TestRewriteRussianVariants(t *testing.T) {
	assert := assert.New(t)
	rw, _ := newRewriter(map[string]string{"Hello": "Привет"}, "ru")

	doc, _ := rewrite(t, rw, "[a]\ntitle: Hello\n")
	lines := strings.Split(strings.TrimSuffix(doc.Render(), "\n"), "\n")
	assert.Equal([]string{
		"[a]",
		"title: Hello",
		"title_ru: Привет",
		"title_ru_ru: Привет",
	}, lines)
}

// a translator that always fails
type failingTranslator struct{}

func (failingTranslator) Translate(context.Context, []string, string, string) ([]string, error) {
	return nil, errors.New("model unavailable")
}

func TestRewritePropagatesTranslatorErrors(t *testing.T) {
	assert := assert.New(t)
	rw := &Rewriter{Translator: failingTranslator{}, Target: language.Resolve("zh")}
	doc, err := Parse([]byte("[a]\ntitle: Hello\n"))
	assert.Nil(err)
	_, err = rw.Rewrite(context.Background(), doc)
	assert.NotNil(err)
}
