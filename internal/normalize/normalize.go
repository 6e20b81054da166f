// Package normalize turns a model's free-text reply into parsed JSON.
//
// Models often wrap JSON in Markdown code fences. Parse strips a fence anchored
// at the very start and one at the very end of the reply and decodes what is
// left. Malformed replies are reported as data, never as an error.
package normalize

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// ParseFailure is the Error value of a StructuredAnswer that could not be decoded.
const ParseFailure = "Failed to parse JSON"

// space matches everything strings.TrimSpace removes, not only ASCII blanks.
const space = `[\s\v\p{Z}\x{85}]*`

var (
	leadingFence  = regexp.MustCompile("^```(?i:json)?" + space)
	trailingFence = regexp.MustCompile(space + "```$")
)

var errTrailingData = errors.New("trailing data after JSON value")

// StructuredAnswer is either a decoded JSON value or a parse failure carrying
// the untouched reply. Callers discriminate with Failed.
type StructuredAnswer struct {
	Value       any    // decoded document, numbers as json.Number; nil on failure (or for a JSON null)
	Error       string // ParseFailure on failure, empty on success
	RawResponse string // original reply, set only on failure
}

// Failed reports whether the reply could not be decoded.
func (a StructuredAnswer) Failed() bool {
	return a.Error != ""
}

// Answer returns the "answer" field of a decoded object, if it is a string.
func (a StructuredAnswer) Answer() (string, bool) {
	obj, ok := a.Value.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := obj["answer"].(string)
	return s, ok
}

// MarshalJSON renders success as the decoded value itself and failure as
// {"error": ..., "raw_response": ...}.
func (a StructuredAnswer) MarshalJSON() ([]byte, error) {
	if a.Failed() {
		return json.Marshal(struct {
			Error       string `json:"error"`
			RawResponse string `json:"raw_response"`
		}{a.Error, a.RawResponse})
	}
	return json.Marshal(a.Value)
}

// StripFences trims surrounding whitespace, then removes a leading ``` or
// ```json marker and a trailing ``` marker. Fences elsewhere are left alone.
func StripFences(s string) string {
	clean := strings.TrimSpace(s)
	clean = leadingFence.ReplaceAllLiteralString(clean, "")
	clean = trailingFence.ReplaceAllLiteralString(clean, "")
	return clean
}

// Parse decodes raw after StripFences. On failure it logs the cleaned text
// and returns the failure shape holding raw unmodified. log may be nil.
func Parse(log *slog.Logger, raw string) StructuredAnswer {
	clean := StripFences(raw)
	v, err := decode(clean)
	if err != nil {
		if log != nil {
			log.Error("JSON parse error", "clean", clean, "err", err)
		}
		return StructuredAnswer{Error: ParseFailure, RawResponse: raw}
	}
	return StructuredAnswer{Value: v}
}

// decode reads exactly one JSON value, keeping numbers exact.
func decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}
