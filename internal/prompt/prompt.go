// Package prompt assembles the prompt text for each prompting pattern.
// Builders are pure: the same inputs always yield the same string.
package prompt

import (
	"fmt"
	"strings"
)

// Example is one question/answer pair shown to the model before the real query.
type Example struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// BuildFewShot lists the examples in order as Q/A lines and ends with the
// query and an open "A:" for the model to complete.
func BuildFewShot(query string, examples []Example) string {
	var b strings.Builder
	for _, ex := range examples {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", ex.Question, ex.Answer)
	}
	fmt.Fprintf(&b, "Q: %s\nA:", query)
	return b.String()
}

// BuildStructuredJSON asks for a single-key {"answer": ...} JSON object.
func BuildStructuredJSON(query string) string {
	return `Answer the following question in JSON format '{"answer": "Your answer here"}'. Question: ` + query
}

// BuildRAG grounds the question in the supplied context.
func BuildRAG(context, question string) string {
	return "Context: " + context + "\nQuestion: " + question + "\nAnswer:"
}
