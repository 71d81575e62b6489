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
	"strings"

	"github.com/rustedworkshop/mts/language"
)

// Translator is the capability the rewriter needs from the translation model:
// a batch of source strings mapped to a batch of translated strings of equal
// length.
type Translator interface {
	Translate(ctx context.Context, batch []string, style, targetLanguage string) ([]string, error)
}

// A Rewriter applies structure-preserving translation to documents: base
// allow-listed keys keep their original values, and translated values are
// written under localized sibling keys (e.g. title -> title_zh).
type Rewriter struct {
	Translator Translator
	// the style hint passed with every batch
	Style string
	// the resolved target language
	Target language.Target
}

// a base allow-listed key/value line together with its localized siblings in
// the same section
type baseEntry struct {
	// index of the base line in doc.Lines
	index int
	// indices of localized siblings, in insertion order
	siblings []int
	// sibling language tags, parallel to siblings
	tags []string
}

// Rewrite translates the document's allow-listed values in place, reporting
// whether anything changed. Running it a second time with the same target
// language is a no-op.
func (rw *Rewriter) Rewrite(ctx context.Context, doc *Document) (bool, error) {
	entries := collectEntries(doc)
	if len(entries) == 0 {
		return false, nil
	}

	// determine the source text for each base entry and gather the unique
	// strings into one batch
	sources := make(map[int]string) // base line index -> source text
	var batch []string
	inBatch := make(map[string]bool)
	for _, entry := range entries {
		text := sourceText(doc, entry)
		if text == "" {
			continue
		}
		sources[entry.index] = text
		if !inBatch[text] {
			inBatch[text] = true
			batch = append(batch, text)
		}
	}
	if len(batch) == 0 {
		return false, nil
	}

	translations, err := rw.Translator.Translate(ctx, batch, rw.Style, rw.Target.PromptName)
	if err != nil {
		return false, err
	}
	if len(translations) != len(batch) {
		return false, &BatchLengthError{Want: len(batch), Got: len(translations)}
	}
	translated := make(map[string]string, len(batch))
	for i, source := range batch {
		translated[source] = sanitizeTranslation(translations[i])
	}

	// apply translations: overwrite same-language siblings where they exist,
	// otherwise insert one localized line per suffix variant after the base
	changed := false
	inserts := make(map[int][]Line) // base line index -> lines to insert after it
	for _, entry := range entries {
		source, found := sources[entry.index]
		if !found {
			continue
		}
		text, found := translated[source]
		if !found || text == "" {
			continue
		}

		base := &doc.Lines[entry.index]
		overwrote := false
		for i, sibling := range entry.siblings {
			if language.Resolve(entry.tags[i]).Primary != rw.Target.Primary {
				continue
			}
			overwrote = true
			line := &doc.Lines[sibling]
			if line.Value != text {
				line.Value = text
				line.rebuilt = true
				changed = true
			}
		}
		if overwrote {
			continue
		}

		var lines []Line
		for _, suffix := range rw.Target.Suffixes {
			lines = append(lines, Line{
				Kind:    LineKeyValue,
				Indent:  base.Indent,
				Key:     base.Key + "_" + suffix,
				Pre:     base.Pre,
				Sep:     base.Sep,
				Post:    base.Post,
				Value:   text,
				Section: base.Section,
				rebuilt: true,
			})
		}
		inserts[entry.index] = lines
		changed = true
	}

	if len(inserts) > 0 {
		merged := make([]Line, 0, len(doc.Lines)+len(inserts)*len(rw.Target.Suffixes))
		for i := range doc.Lines {
			merged = append(merged, doc.Lines[i])
			merged = append(merged, inserts[i]...)
		}
		doc.Lines = merged
	}
	return changed, nil
}

// finds every base allow-listed key/value line and links it to its localized
// siblings within the same section
func collectEntries(doc *Document) []baseEntry {
	type sectionKey struct {
		section string
		base    string // lowercased
	}
	entryIndex := make(map[sectionKey]int)
	var entries []baseEntry

	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.Kind != LineKeyValue || !TranslatableKey(line.Key) {
			continue
		}
		key := sectionKey{line.Section, strings.ToLower(line.Key)}
		if _, found := entryIndex[key]; !found {
			entryIndex[key] = len(entries)
			entries = append(entries, baseEntry{index: i})
		}
	}

	// siblings may appear before or after their base line, so link them in a
	// second pass
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.Kind != LineKeyValue {
			continue
		}
		base, tag, ok := SplitLocalizedKey(line.Key)
		if !ok {
			continue
		}
		key := sectionKey{line.Section, strings.ToLower(base)}
		if at, found := entryIndex[key]; found {
			entries[at].siblings = append(entries[at].siblings, i)
			entries[at].tags = append(entries[at].tags, tag)
		}
	}
	return entries
}

// returns the source text of a base entry: its own value if non-empty,
// otherwise the first non-empty localized sibling value
func sourceText(doc *Document, entry baseEntry) string {
	if value := strings.TrimSpace(doc.Lines[entry.index].Value); value != "" {
		return doc.Lines[entry.index].Value
	}
	for _, sibling := range entry.siblings {
		if value := strings.TrimSpace(doc.Lines[sibling].Value); value != "" {
			return doc.Lines[sibling].Value
		}
	}
	return ""
}

// collapses a translation onto a single physical line by replacing line
// breaks with the literal two-character escape \n
func sanitizeTranslation(text string) string {
	text = strings.ReplaceAll(text, "\r\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\n`)
	return strings.ReplaceAll(text, "\n", `\n`)
}
