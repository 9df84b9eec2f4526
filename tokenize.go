package sentimiento

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/data"
)

// TokenTester reports whether a whitespace-separated chunk must be kept whole.
type TokenTester func(string) bool

// Tokenizer splits text into word and punctuation tokens.
type Tokenizer interface {
	Tokenize(string) []*Token
}

// iterTokenizer splits a sentence into words.
type iterTokenizer struct {
	specialRE      *regexp.Regexp
	sanitizer      *strings.Replacer
	suffixes       []string
	prefixes       []string
	emoticons      map[string]int
	isUnsplittable TokenTester
}

// TokenizerOptFunc configures the word tokenizer.
type TokenizerOptFunc func(*iterTokenizer)

// UsingIsUnsplittable gives a function that tests whether a token is splittable or not.
func UsingIsUnsplittable(x TokenTester) TokenizerOptFunc {
	return func(tokenizer *iterTokenizer) {
		tokenizer.isUnsplittable = x
	}
}

// Use the provided sanitizer.
func UsingSanitizer(x *strings.Replacer) TokenizerOptFunc {
	return func(tokenizer *iterTokenizer) {
		tokenizer.sanitizer = x
	}
}

// Use the provided suffixes.
func UsingSuffixes(x []string) TokenizerOptFunc {
	return func(tokenizer *iterTokenizer) {
		tokenizer.suffixes = x
	}
}

// Use the provided prefixes.
func UsingPrefixes(x []string) TokenizerOptFunc {
	return func(tokenizer *iterTokenizer) {
		tokenizer.prefixes = x
	}
}

// Use the provided map of emoticons.
func UsingEmoticons(x map[string]int) TokenizerOptFunc {
	return func(tokenizer *iterTokenizer) {
		tokenizer.emoticons = x
	}
}

// NewIterTokenizer returns a whitespace-and-punctuation tokenizer tuned for
// Spanish: inverted marks (¡, ¿) split off as prefixes.
func NewIterTokenizer(opts ...TokenizerOptFunc) *iterTokenizer {
	tok := new(iterTokenizer)

	tok.emoticons = emoticons
	tok.isUnsplittable = func(_ string) bool { return false }
	tok.prefixes = prefixes
	tok.sanitizer = sanitizer
	tok.specialRE = internalRE
	tok.suffixes = suffixes

	for _, applyOpt := range opts {
		applyOpt(tok)
	}

	return tok
}

func (t *iterTokenizer) isSpecial(token string) bool {
	_, found := t.emoticons[token]
	return found || t.specialRE.MatchString(token) || t.isUnsplittable(token)
}

// doSplit peels prefixes and suffixes off a whitespace-delimited span.
// offset is the byte position of span within the tokenized text.
func (t *iterTokenizer) doSplit(token string, offset int) []*Token {
	var tokens, suffs []*Token
	end := offset + len(token)

	for token != "" {
		if t.isSpecial(token) {
			// We've found a special case (e.g., an emoticon) -- so, we add it as a token without
			// any further processing.
			tokens = append(tokens, &Token{Text: token, Start: offset, End: offset + len(token)})
			break
		}
		if p := matchAffix(token, t.prefixes, strings.HasPrefix); p != "" {
			// ¿Qué -> [¿, Qué].
			tokens = append(tokens, &Token{Text: p, Start: offset, End: offset + len(p)})
			token = token[len(p):]
			offset += len(p)
			continue
		}
		if s := matchAffix(token, t.suffixes, strings.HasSuffix); s != "" {
			// rico! -> [rico, !].
			end -= len(s)
			suffs = append([]*Token{{Text: s, Start: end, End: end + len(s)}}, suffs...)
			token = token[:len(token)-len(s)]
			continue
		}
		tokens = append(tokens, &Token{Text: token, Start: offset, End: offset + len(token)})
		break
	}

	return append(tokens, suffs...)
}

func matchAffix(token string, affixes []string, has func(string, string) bool) string {
	for _, a := range affixes {
		if has(token, a) {
			return a
		}
	}
	return ""
}

// Tokenize splits text into tokens. Positions refer to the sanitized text
// (curly quotes folded to ASCII).
func (t *iterTokenizer) Tokenize(text string) []*Token {
	clean := t.sanitizer.Replace(text)

	var tokens []*Token
	start := -1
	for i, r := range clean {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, t.doSplit(clean[start:i], start)...)
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, t.doSplit(clean[start:], start)...)
	}

	return tokens
}

// sentenceTokenizer segments text into sentences with a punkt model trained
// on Spanish, then splits each sentence into words.
type sentenceTokenizer struct {
	punkt *sentences.DefaultSentenceTokenizer
	words *iterTokenizer
}

// NewSpanishTokenizer returns the tokenizer used by the text normalizer.
func NewSpanishTokenizer(opts ...TokenizerOptFunc) (Tokenizer, error) {
	b, err := data.Asset("data/spanish.json")
	if err != nil {
		return nil, fmt.Errorf("load punkt spanish model: %w", err)
	}
	training, err := sentences.LoadTraining(b)
	if err != nil {
		return nil, fmt.Errorf("parse punkt spanish model: %w", err)
	}
	return &sentenceTokenizer{
		punkt: sentences.NewSentenceTokenizer(training),
		words: NewIterTokenizer(opts...),
	}, nil
}

// Segment splits text into sentences.
func (st *sentenceTokenizer) Segment(text string) []Sentence {
	var out []Sentence
	for _, s := range st.punkt.Tokenize(text) {
		out = append(out, Sentence{Text: s.Text, Start: s.Start, End: s.End})
	}
	return out
}

// Tokenize splits every sentence of text into word tokens.
func (st *sentenceTokenizer) Tokenize(text string) []*Token {
	var tokens []*Token
	for _, s := range st.Segment(text) {
		for _, tok := range st.words.Tokenize(s.Text) {
			tok.Start += s.Start
			tok.End += s.Start
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

var internalRE = regexp.MustCompile(`^(?:[A-Za-z]\.){2,}$|^(?:Sr|Sra|Srta|Dr|Dra|Av|Jr|Urb)\.$`)
var sanitizer = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"«", `"`,
	"»", `"`,
	"‘", "'",
	"’", "'",
	"…", "...",
	"&rsquo;", "'")
var suffixes = []string{"...", ",", ")", `"`, "]", "!", ";", ".", "?", ":", "'"}
var prefixes = []string{"¡", "¿", "(", `"`, "[", "$", "'"}
var emoticons = map[string]int{
	":(":    1,
	":((":   1,
	":)":    1,
	":))":   1,
	":-(":   1,
	":-)":   1,
	":-/":   1,
	":-D":   1,
	":-P":   1,
	":-|":   1,
	":/":    1,
	":D":    1,
	":P":    1,
	":'(":   1,
	";)":    1,
	";-)":   1,
	"<3":    1,
	"=(":    1,
	"=)":    1,
	"xD":    1,
	"XD":    1,
	"-_-":   1,
	"^_^":   1,
}
