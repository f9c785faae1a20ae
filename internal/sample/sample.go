// Package sample ships a small student-friendly sustainability document so the
// service can answer questions before anyone uploads their own text.
package sample

import _ "embed"

// Source names the embedded document in logs and statuses.
const Source = "sample:sustainability.txt"

//go:embed sustainability.txt
var document []byte

// Document returns a copy of the embedded sample text.
func Document() []byte {
	return append([]byte(nil), document...)
}

// Questions are example questions the sample document can answer.
func Questions() []string {
	return []string{
		"What is climate change?",
		"How does solar energy work?",
		"What are the SDGs?",
		"Why is biodiversity important?",
		"How can I reduce my carbon footprint?",
		"What is circular economy?",
		"Why should we save water?",
	}
}
