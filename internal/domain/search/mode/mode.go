package mode

// Mode is the retrieval strategy.
type Mode string

// Retrieval mode constants.
const (
	// TFIDF ranks chunks by cosine similarity of TF-IDF vectors.
	TFIDF Mode = "tfidf"
	// Overlap ranks chunks by the share of question words they contain.
	Overlap Mode = "overlap"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == TFIDF || m == Overlap
}
