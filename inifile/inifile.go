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

// Package inifile reads, rewrites, and writes the semi-INI configuration
// grammar used by game mods: comment lines (# or ;), [section] headers,
// key/value lines separated by ':' or '=', and multi-line literal blocks
// delimited by triple quotes ("""). The package's whole purpose is to change
// nothing but the values of a fixed allow-list of natural-language keys; every
// other line must survive a round trip byte-for-byte so the consuming game can
// still load the file.
package inifile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// the kinds of line a document can contain
type LineKind int

const (
	// an all-whitespace line
	LineBlank LineKind = iota
	// a comment line beginning with '#' or ';'
	LineComment
	// a [section] header
	LineSection
	// a key/value line
	LineKeyValue
	// anything else, including every line belonging to a """-block; raw
	// lines pass through verbatim
	LineRaw
)

// one physical line of a document
type Line struct {
	Kind LineKind
	// the original text of the line, without its terminator
	Raw string
	// parsed key/value fields (LineKeyValue only): indent, key, whitespace
	// before the separator, the separator itself (':' or '='), whitespace
	// after it, and the value
	Indent, Key, Pre, Sep, Post, Value string
	// the name of the section this line appears in ("" before the first
	// header)
	Section string
	// set when Value has been replaced and the line must be re-rendered
	// from its fields instead of emitted raw
	rebuilt bool
}

// returns the output text of the line (no terminator)
func (l *Line) Text() string {
	if l.Kind == LineKeyValue && l.rebuilt {
		return l.Indent + l.Key + l.Pre + l.Sep + l.Post + l.Value
	}
	return l.Raw
}

// a parsed document
type Document struct {
	// the path the document was loaded from (and is stored back to)
	Path string
	// the document's lines, in order
	Lines []Line
	// the dominant line terminator of the input ("\n" or "\r\n"),
	// reproduced on output
	Terminator string
	// whether the input ends with a line terminator
	TrailingTerminator bool
	// set when the document contains a """-block that is never closed; such
	// a document is preserved as-is from the opening line onward
	UnclosedBlock bool
}

// the base keys whose values hold natural-language text, plus the indexed
// action_N_text / action_N_displayName forms
var translatableKeyRegex = regexp.MustCompile(`(?i)^(?:` +
	`description|title|displaydescription|text|displaytext|` +
	`islockedaltmessage|cannotplacemessage|displayname|displaynameshort|` +
	`showmessagetoplayer|showmessagetoallplayers|` +
	`action_\d+_(?:text|displayname))$`)

// a language-tag suffix such as zh, zh_cn, or pt-br
var languageTagSuffixRegex = regexp.MustCompile(`(?i)^[a-z]{2,3}(?:[-_][a-z0-9]{2,8})*$`)

var sectionRegex = regexp.MustCompile(`^\s*\[(.*)\]\s*$`)
var keyValueRegex = regexp.MustCompile(`^([ \t]*)([A-Za-z0-9_.\-]+)([ \t]*)([:=])([ \t]*)(.*)$`)

const tripleQuote = `"""`

// TranslatableKey reports whether key is on the allow-list of base keys whose
// values are natural-language text.
func TranslatableKey(key string) bool {
	return translatableKeyRegex.MatchString(key)
}

// SplitLocalizedKey splits a key of the form <base>_<languageTag> where base
// is allow-listed, returning the base, the tag, and whether the split
// succeeded. The longest allow-listed base wins, so action_1_text_zh splits
// as (action_1_text, zh).
func SplitLocalizedKey(key string) (base, tag string, ok bool) {
	for i := len(key) - 1; i > 0; i-- {
		if key[i] != '_' {
			continue
		}
		b, t := key[:i], key[i+1:]
		if TranslatableKey(b) && languageTagSuffixRegex.MatchString(t) {
			return b, t, true
		}
	}
	return "", "", false
}

// Load reads and parses the file at path, auto-detecting its encoding and
// recording its line-terminator conventions.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Parse parses raw file bytes into a document.
func Parse(raw []byte) (*Document, error) {
	content, err := decodeBytes(raw)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Terminator:         dominantTerminator(content),
		TrailingTerminator: strings.HasSuffix(content, "\n"),
	}

	texts := strings.Split(content, "\n")
	if doc.TrailingTerminator {
		texts = texts[:len(texts)-1]
	}

	section := ""
	inBlock := false
	for _, text := range texts {
		text = strings.TrimSuffix(text, "\r")
		line := Line{Raw: text, Section: section}

		if inBlock {
			line.Kind = LineRaw
			if strings.Count(text, tripleQuote)%2 == 1 {
				inBlock = false
			}
			doc.Lines = append(doc.Lines, line)
			continue
		}

		trimmed := strings.TrimSpace(text)
		switch {
		case trimmed == "":
			line.Kind = LineBlank
		case strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";"):
			line.Kind = LineComment
		case sectionRegex.MatchString(text):
			section = strings.TrimSpace(sectionRegex.FindStringSubmatch(text)[1])
			line.Kind = LineSection
			line.Section = section
		default:
			if m := keyValueRegex.FindStringSubmatch(text); m != nil && !strings.Contains(m[6], tripleQuote) {
				line.Kind = LineKeyValue
				line.Indent, line.Key, line.Pre, line.Sep, line.Post, line.Value =
					m[1], m[2], m[3], m[4], m[5], m[6]
			} else {
				// unparsable lines and lines carrying """ pass through
				// verbatim; an odd number of """ opens a literal block
				line.Kind = LineRaw
				if strings.Count(text, tripleQuote)%2 == 1 {
					inBlock = true
				}
			}
		}
		doc.Lines = append(doc.Lines, line)
	}

	// an unclosed block at EOF is an input defect we preserve rather than
	// reject
	doc.UnclosedBlock = inBlock
	return doc, nil
}

// returns the more frequent of "\r\n" and "\n" in content
func dominantTerminator(content string) string {
	crlf := strings.Count(content, "\r\n")
	lf := strings.Count(content, "\n") - crlf
	if crlf > lf {
		return "\r\n"
	}
	return "\n"
}

// Render returns the document's output text.
func (doc *Document) Render() string {
	var sb strings.Builder
	for i := range doc.Lines {
		if i > 0 {
			sb.WriteString(doc.Terminator)
		}
		sb.WriteString(doc.Lines[i].Text())
	}
	if doc.TrailingTerminator && len(doc.Lines) > 0 {
		sb.WriteString(doc.Terminator)
	}
	return sb.String()
}

// Store writes the document back to its path atomically: the content goes to
// a temporary file in the same directory which is then renamed into place.
// Output is always UTF-8.
func (doc *Document) Store() error {
	dir := filepath.Dir(doc.Path)
	tmp, err := os.CreateTemp(dir, ".mts-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, err = tmp.WriteString(doc.Render())
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0644)
	}
	if err == nil {
		err = os.Rename(tmpName, doc.Path)
	}
	if err != nil {
		os.Remove(tmpName)
	}
	return err
}

// FindTranslatable walks dir and returns forward-slash relative paths of all
// files that may contain translatable text: .ini and .template files, plus
// mod-info.txt.
func FindTranslatable(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if strings.HasSuffix(name, ".ini") || strings.HasSuffix(name, ".template") ||
			name == "mod-info.txt" {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			paths = append(paths, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
