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

package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveChineseFamily(t *testing.T) {
	assert := assert.New(t)
	for _, input := range []string{"zh", "zh-CN", "ZH_CN", "zh-Hans", "中文", "汉化", "cn", "简体中文"} {
		target := Resolve(input)
		assert.Equal("zh", target.Primary, "input %q", input)
		assert.Equal("中文", target.PromptName, "input %q", input)
		assert.Equal([]string{"zh", "zh_cn", "cn"}, target.Suffixes, "input %q", input)
	}
}

func TestResolveKnownFamilies(t *testing.T) {
	assert := assert.New(t)

	ru := Resolve("russian")
	assert.Equal("俄文", ru.PromptName)
	assert.Equal([]string{"ru", "ru_ru"}, ru.Suffixes)

	en := Resolve("EN")
	assert.Equal("英文", en.PromptName)
	assert.Equal([]string{"en", "en_us"}, en.Suffixes)

	ja := Resolve("ja-JP")
	assert.Equal("日文", ja.PromptName)
	assert.Equal([]string{"ja", "ja_jp"}, ja.Suffixes)

	ko := Resolve("韩文")
	assert.Equal("韩文", ko.PromptName)
	assert.Equal([]string{"ko", "ko_kr"}, ko.Suffixes)
}

func TestResolveOtherWellFormedTag(t *testing.T) {
	assert := assert.New(t)
	target := Resolve("pt-BR")
	assert.Equal("pt", target.Primary)
	assert.Equal([]string{"pt"}, target.Suffixes)
	// unrecognized families keep the original input as the prompt name
	assert.Equal("pt-BR", target.PromptName)
}

func TestResolveLooseNativeDescriptions(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("zh", Resolve("中文汉化").Primary)
	assert.Equal("ru", Resolve("俄文翻译").Primary)
}

func TestResolveEmptyDefaultsToChinese(t *testing.T) {
	assert := assert.New(t)
	target := Resolve("")
	assert.Equal("zh", target.Primary)
	assert.Equal("中文", target.PromptName)
	assert.Equal([]string{"zh", "zh_cn", "cn"}, target.Suffixes)
}

func TestResolveGarbageDefaultsToChinese(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("zh", Resolve("???!").Primary)
}

func TestSuffixesAreDeduplicated(t *testing.T) {
	assert := assert.New(t)
	target := Resolve("zh-CN")
	seen := make(map[string]bool)
	for _, s := range target.Suffixes {
		assert.False(seen[s])
		seen[s] = true
	}
}
