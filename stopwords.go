package sentimiento

import (
	"sort"
	"strings"

	"github.com/bbalet/stopwords"
)

// preservedWords carry negation, intensity or contrast. Removing them flips
// the polarity of phrases such as "no me gustó" or "muy lento".
var preservedWords = []string{
	"no", "ni", "nada", "muy", "poco", "mucho", "más", "menos", "algo", "ya",
	"antes", "después", "hasta", "todo", "todos", "como", "para", "sin", "con",
	"pero", "aunque",
}

// StopwordSet is an immutable set of words dropped by the normalizer.
type StopwordSet map[string]struct{}

// Contains reports whether w is a stopword.
func (s StopwordSet) Contains(w string) bool {
	_, ok := s[w]
	return ok
}

// Words returns the set's members in sorted order.
func (s StopwordSet) Words() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// SpanishStopwords returns the Spanish stopword list minus the words that
// carry sentiment information.
func SpanishStopwords() StopwordSet {
	return NewStopwordSet(probeStopwords(spanishCandidates, "es"), preservedWords)
}

// NewStopwordSet builds a set from words, leaving out everything in keep.
func NewStopwordSet(words, keep []string) StopwordSet {
	skip := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		skip[k] = struct{}{}
	}
	set := make(StopwordSet, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if _, ok := skip[w]; ok {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// probeStopwords returns the candidates that the stopwords library removes.
// The library does not export its lists, so each word is cleaned on its own
// and counted as a stopword when nothing survives.
func probeStopwords(candidates []string, langCode string) []string {
	var found []string
	for _, word := range candidates {
		if strings.TrimSpace(stopwords.CleanString(word, langCode, false)) == "" {
			found = append(found, word)
		}
	}
	return found
}

var spanishCandidates = []string{
	// articles and determiners
	"el", "la", "lo", "los", "las", "un", "una", "unos", "unas", "al", "del",
	"este", "esta", "esto", "estos", "estas", "ese", "esa", "eso", "esos", "esas",
	"aquel", "aquella", "aquello", "aquellos", "aquellas", "cada", "otro", "otra",
	"otros", "otras", "mismo", "misma", "mismos", "mismas", "tal", "tan", "tanto",
	"tanta", "tantos", "tantas", "cual", "cuales", "cuyo", "cuya", "quien", "quienes",
	// pronouns
	"yo", "tú", "tu", "él", "ella", "ello", "nosotros", "nosotras", "vosotros",
	"vosotras", "ellos", "ellas", "usted", "ustedes", "me", "te", "se", "nos", "os",
	"le", "les", "mi", "mis", "tus", "su", "sus", "nuestro", "nuestra", "nuestros",
	"nuestras", "vuestro", "vuestra", "mío", "mía", "tuyo", "tuya", "suyo", "suya",
	// prepositions and conjunctions
	"a", "ante", "bajo", "con", "contra", "de", "desde", "durante", "en", "entre",
	"hacia", "hasta", "mediante", "para", "por", "según", "sin", "sobre", "tras",
	"y", "e", "o", "u", "ni", "pero", "sino", "aunque", "porque", "pues", "que",
	"si", "como", "cuando", "donde", "mientras",
	// frequent verbs
	"es", "son", "era", "eran", "fue", "fueron", "ser", "sido", "siendo", "sea",
	"está", "están", "estaba", "estaban", "estar", "estado", "estuvo", "estuve",
	"he", "ha", "han", "has", "hemos", "había", "habían", "haber", "hay", "hubo",
	"tengo", "tiene", "tienen", "tenía", "tener",
	// adverbs and quantifiers
	"no", "sí", "ya", "muy", "más", "menos", "mucho", "mucha", "muchos", "muchas",
	"poco", "poca", "pocos", "pocas", "todo", "toda", "todos", "todas", "nada",
	"algo", "alguno", "alguna", "algunos", "algunas", "ninguno", "ninguna",
	"también", "tampoco", "antes", "después", "aquí", "allí", "ahí", "ahora",
	"entonces", "siempre", "nunca", "qué", "cómo", "dónde", "cuándo",
}
