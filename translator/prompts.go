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

import "fmt"

// NeutralStyle is the style hint used when no caller-supplied style exists
// and style analysis is unavailable.
const NeutralStyle = "Plain, faithful game-text translation. Keep terminology consistent and preserve any markup or placeholders verbatim."

// system message for batch translation; the strict output contract is what
// lets us map translations back onto source strings by index
func translateSystemPrompt(n int, targetLanguage, style string) string {
	prompt := fmt.Sprintf(
		"You are a translator for video game mod text. The user message is a "+
			"numbered list of %d source strings. Translate each string into %s. "+
			"Preserve placeholders, escape sequences (such as \\n), and any markup "+
			"exactly as written. Respond with ONLY a JSON array of exactly %d "+
			"strings, in the same order as the input. No commentary, no keys, no "+
			"numbering.", n, targetLanguage, n)
	if style != "" {
		prompt += "\n\nStyle guideline:\n" + style
	}
	return prompt
}

// system message for style analysis
const styleSystemPrompt = "You are a localization editor. The user message " +
	"contains sample text from a video game mod, samples separated by " +
	"'----------'. Describe in 2-3 short sentences the tone, register, and " +
	"terminology conventions a translator should follow for this mod. Respond " +
	"with the guideline only."
