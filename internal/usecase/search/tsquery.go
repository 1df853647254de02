package search

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultLanguage is the text search configuration used when none is given.
const DefaultLanguage = "english"

// Translator converts free-text user queries into the lexical backend's
// tsquery expression syntax: `&`/`|` boolean operators, `<->` phrase
// adjacency and `:*` prefix matching.
type Translator struct {
	language string
}

// NewTranslator creates a query translator for the given text search
// language configuration.
func NewTranslator(language string) *Translator {
	if language == "" {
		language = DefaultLanguage
	}
	return &Translator{language: language}
}

// Language returns the text search configuration name.
func (t *Translator) Language() string { return t.language }

// Analysis describes how a query was translated, for debugging.
type Analysis struct {
	Original   string
	Translated string
	Language   string
}

// Analyze translates a query and reports both forms.
func (t *Translator) Analyze(query string) Analysis {
	return Analysis{
		Original:   query,
		Translated: t.Translate(query),
		Language:   t.language,
	}
}

// unsafeChars matches everything outside the set that is safe to pass
// into a tsquery expression.
var unsafeChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\-'"&|!()]`)

// Translate converts a free-text query into a tsquery expression.
//
// Quoted substrings become adjacency-constrained phrases, the textual
// operators AND/OR/NOT (case-sensitive) map to `&`, `|` and `& !`, and
// standalone tokens longer than 3 characters are marked for prefix
// matching. Unconnected terms are joined conjunctively. Translate never
// fails; degenerate input yields an empty expression, which the lexical
// backend treats as "no matches".
func (t *Translator) Translate(query string) string {
	sanitized := unsafeChars.ReplaceAllString(query, " ")

	var tokens []token

	// Segments at odd indices are inside double quotes.
	for i, segment := range strings.Split(sanitized, `"`) {
		if i%2 == 1 {
			if tk, ok := phraseToken(segment); ok {
				tokens = append(tokens, tk)
			}
			continue
		}
		tokens = append(tokens, tokenize(segment)...)
	}

	return assemble(tokens)
}

type tokenKind int

const (
	termWord   tokenKind = iota // prefix-eligible plain word
	termPhrase                  // quoted phrase or exact term, used as-is
	opAnd
	opOr
	opNot
)

type token struct {
	text string
	kind tokenKind
}

// phraseToken builds an adjacency term from the words of a quoted
// segment. A single-word phrase stays an exact term with no prefix.
func phraseToken(segment string) (token, bool) {
	words := strings.Fields(segment)
	switch len(words) {
	case 0:
		return token{}, false
	case 1:
		return token{text: words[0], kind: termPhrase}, true
	default:
		return token{text: "(" + strings.Join(words, " <-> ") + ")", kind: termPhrase}, true
	}
}

// tokenize splits an unquoted segment into operator and word tokens.
func tokenize(segment string) []token {
	var out []token
	for _, w := range strings.Fields(segment) {
		switch w {
		case "AND", "&":
			out = append(out, token{kind: opAnd})
		case "OR", "|":
			out = append(out, token{kind: opOr})
		case "NOT":
			out = append(out, token{kind: opNot})
		default:
			// Bare boolean/grouping characters inside a word would leave
			// the expression malformed; they are stripped, not honored.
			w = strings.Trim(w, "()&|!")
			if !hasAlnum(w) {
				continue
			}
			out = append(out, token{text: w, kind: termWord})
		}
	}
	return out
}

// hasAlnum reports whether the word contains at least one letter or
// digit. Leftover punctuation runs (hyphens, apostrophes) match nothing
// in the index and are dropped.
func hasAlnum(w string) bool {
	return strings.IndexFunc(w, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// assemble joins terms with explicit operators where given and `&`
// otherwise. NOT negates the following term. Dangling operators with no
// term to bind to are dropped.
func assemble(tokens []token) string {
	var b strings.Builder
	pendingOp := ""
	negate := false

	for _, tk := range tokens {
		switch tk.kind {
		case opAnd:
			if b.Len() > 0 {
				pendingOp = "&"
			}
		case opOr:
			if b.Len() > 0 {
				pendingOp = "|"
			}
		case opNot:
			negate = true
		default:
			term := tk.text
			if tk.kind == termWord && len([]rune(term)) > 3 {
				term += ":*"
			}
			if negate {
				term = "!" + term
				negate = false
			}
			if b.Len() > 0 {
				op := pendingOp
				if op == "" {
					op = "&"
				}
				b.WriteString(" " + op + " ")
			}
			b.WriteString(term)
			pendingOp = ""
		}
	}

	return b.String()
}
