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

package workers

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rustedworkshop/mts/inifile"
	"github.com/rustedworkshop/mts/translator"
)

// caps on the sample text fed to the style analyzer
const (
	maxStyleSamples      = 30
	maxStyleSampleLength = 500
)

// samples are joined with a visible separator so the analyzer sees them as
// distinct strings
const styleSampleSeparator = "----------"

// styleHint decides the style description passed along with every
// translation batch. A style supplied by the submitter wins; otherwise the
// archive's own text is sampled and analyzed. Style analysis is best-effort
// and never fails a task.
func styleHint(ctx context.Context, tr translator.Translator, literal string,
	contentDir string, relPaths []string) string {
	if literal != "" {
		return literal
	}
	sample := collectStyleSamples(contentDir, relPaths)
	if sample == "" {
		return translator.NeutralStyle
	}
	style, err := tr.AnalyzeStyle(ctx, sample)
	if err != nil {
		slog.Warn(fmt.Sprintf("Style analysis failed, using neutral style: %s",
			err.Error()))
		return translator.NeutralStyle
	}
	return style
}

// collectStyleSamples gathers translatable source text from the unpacked
// archive, up to maxStyleSamples strings of maxStyleSampleLength characters
// each.
func collectStyleSamples(contentDir string, relPaths []string) string {
	samples := make([]string, 0, maxStyleSamples)
	for _, relPath := range relPaths {
		if len(samples) == maxStyleSamples {
			break
		}
		doc, err := inifile.Load(filepath.Join(contentDir, filepath.FromSlash(relPath)))
		if err != nil {
			continue // unreadable files are reported by the workers instead
		}
		for _, line := range doc.Lines {
			if len(samples) == maxStyleSamples {
				break
			}
			if line.Kind != inifile.LineKeyValue {
				continue
			}
			// already-localized values would skew the analysis toward the
			// target language
			if _, _, localized := inifile.SplitLocalizedKey(line.Key); localized {
				continue
			}
			if !inifile.TranslatableKey(line.Key) {
				continue
			}
			text := strings.TrimSpace(line.Value)
			if text == "" {
				continue
			}
			if len(text) > maxStyleSampleLength {
				text = text[:maxStyleSampleLength]
			}
			samples = append(samples, text)
		}
	}
	return strings.Join(samples, "\n"+styleSampleSeparator+"\n")
}
