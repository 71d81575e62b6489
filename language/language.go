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

// Package language normalizes the free-form target-language input attached to
// a translation task. A language resolves to a human-readable name fed to the
// translation model and an ordered list of key-suffix variants under which
// translated values are written back into config files.
package language

import (
	"regexp"
	"strings"
)

// The result of resolving a target-language input.
type Target struct {
	// the language name fed to the translation model's prompt
	PromptName string
	// the ordered, deduplicated list of key suffixes to write (e.g.
	// ["zh", "zh_cn", "cn"])
	Suffixes []string
	// the primary language subtag (e.g. "zh" for "zh-CN")
	Primary string
}

// matches well-formed BCP-47-ish tags such as zh-CN or pt_BR
var languageTagRegex = regexp.MustCompile(`(?i)^([a-z]{2,3})(?:[-_][a-z0-9]{2,8})*$`)

// maps normalized input tokens to a primary subtag
var languageAliases = map[string]string{
	// Chinese
	"zh": "zh", "zh-cn": "zh", "zh_cn": "zh", "zh-hans": "zh", "zh_hans": "zh",
	"chinese": "zh", "simplifiedchinese": "zh", "traditionalchinese": "zh",
	"cn": "zh", "中文": "zh", "汉语": "zh", "汉化": "zh", "简体中文": "zh", "繁体中文": "zh",
	// Russian
	"ru": "ru", "ru-ru": "ru", "ru_ru": "ru", "russian": "ru", "русский": "ru",
	"俄文": "ru", "俄语": "ru",
	// English
	"en": "en", "en-us": "en", "en_us": "en", "english": "en", "英文": "en", "英语": "en",
	// Japanese
	"ja": "ja", "ja-jp": "ja", "ja_jp": "ja", "japanese": "ja", "日文": "ja", "日语": "ja",
	// Korean
	"ko": "ko", "ko-kr": "ko", "ko_kr": "ko", "korean": "ko", "韩文": "ko", "韩语": "ko",
}

// prompt names for the languages with dedicated suffix variants
var promptNames = map[string]string{
	"zh": "中文",
	"ru": "俄文",
	"en": "英文",
	"ja": "日文",
	"ko": "韩文",
}

// suffix variants written for each recognized primary subtag
var suffixVariants = map[string][]string{
	"zh": {"zh", "zh_cn", "cn"},
	"ru": {"ru", "ru_ru"},
	"en": {"en", "en_us"},
	"ja": {"ja", "ja_jp"},
	"ko": {"ko", "ko_kr"},
}

// the primary subtag assumed when the input is empty or unrecognizable
const defaultPrimary = "zh"

// strips all whitespace and lowercases the input for alias lookup
func normalizeToken(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), ""))
}

// returns the primary subtag for the given language input
func primarySubtag(input string) string {
	token := normalizeToken(input)
	if token == "" {
		return defaultPrimary
	}
	if alias, found := languageAliases[token]; found {
		return alias
	}
	// loose native-script fallbacks for descriptions like "中文汉化" or "俄文翻译"
	if strings.Contains(input, "中文") || strings.Contains(input, "汉化") {
		return "zh"
	}
	if strings.Contains(input, "俄") {
		return "ru"
	}
	if m := languageTagRegex.FindStringSubmatch(token); m != nil {
		return strings.ToLower(m[1])
	}
	return defaultPrimary
}

// Resolve normalizes a target-language input. Aliased languages (Chinese,
// Russian, English, Japanese, Korean families) carry multiple suffix
// variants; any other well-formed tag yields its primary subtag as the sole
// variant with the original input as the prompt name.
func Resolve(input string) Target {
	trimmed := strings.TrimSpace(input)
	primary := primarySubtag(trimmed)

	variants, found := suffixVariants[primary]
	if !found {
		variants = []string{primary}
	}

	// deduplicate while preserving order
	suffixes := make([]string, 0, len(variants))
	seen := make(map[string]bool)
	for _, v := range variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		suffixes = append(suffixes, v)
	}

	// recognized language families carry a canonical prompt name; any other
	// well-formed tag is passed to the model as given
	promptName := trimmed
	if name, found := promptNames[primary]; found {
		promptName = name
	}

	return Target{
		PromptName: promptName,
		Suffixes:   suffixes,
		Primary:    primary,
	}
}
