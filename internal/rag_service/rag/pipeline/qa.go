package pipeline

import (
	"strings"
	"unicode/utf8"
)

const (
	answerPreamble  = "Based on the documents, here's what I found:\n\n"
	answerMore      = "...\n\n(There's more information available in the documents)"
	answerNoContext = "I couldn't find relevant information in the uploaded documents to answer your question. " +
		"Please make sure you've uploaded documents related to your query, or try rephrasing your question."

	// maxAnswerExcerpt caps the quoted document text, in runes.
	maxAnswerExcerpt = 1000
)

// ComposeAnswer builds the reply from the chunks of c. No language model is
// involved: the answer quotes the retrieved text.
func ComposeAnswer(c Context) string {
	if len(c.Chunks) == 0 {
		return answerNoContext
	}

	parts := make([]string, 0, len(c.Chunks))
	for _, ch := range c.Chunks {
		if t := strings.Join(strings.Fields(ch.Text), " "); t != "" {
			parts = append(parts, t)
		}
	}
	full := strings.Join(parts, " ")
	if full == "" {
		return answerNoContext
	}

	if utf8.RuneCountInString(full) <= maxAnswerExcerpt {
		return answerPreamble + full
	}
	return answerPreamble + string([]rune(full)[:maxAnswerExcerpt]) + answerMore
}
