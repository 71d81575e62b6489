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

// indicates that the model returned no usable content
type EmptyResponseError struct{}

func (e EmptyResponseError) Error() string {
	return "The translation model returned an empty response."
}

// indicates that the model's reply was not a JSON array of strings
type MalformedResponseError struct {
	Reason string
}

func (e MalformedResponseError) Error() string {
	return fmt.Sprintf("The translation model returned a malformed response: %s", e.Reason)
}

// indicates that the model returned the wrong number of translations
type LengthMismatchError struct {
	Want, Got int
}

func (e LengthMismatchError) Error() string {
	return fmt.Sprintf("The translation model returned %d strings for a batch of %d.",
		e.Got, e.Want)
}
