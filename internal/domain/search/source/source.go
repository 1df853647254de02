package source

// Source identifies which search backend produced a hit.
type Source string

// Search backend constants.
const (
	// Lexical is full-text (boolean/phrase) search over indexed text.
	Lexical Source = "lexical"
	// Semantic is embedding-similarity search over text chunks.
	Semantic Source = "semantic"
)

// IsValid checks if the source is one of the supported values.
func (s Source) IsValid() bool {
	return s == Lexical || s == Semantic
}

// All returns every supported source in canonical order.
func All() []Source {
	return []Source{Lexical, Semantic}
}
