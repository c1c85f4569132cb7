package vocab

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Tables is an immutable set of lookup tables for both languages.
type Tables struct {
	english     map[string]int
	tagalog     map[string]int
	numberWords map[string]int
	temporal    map[string]bool
	stopwords   map[string]bool
}

// Default returns the built-in bilingual tables.
func Default() *Tables {
	t := &Tables{
		english:     make(map[string]int, len(englishOrdinals)+20),
		tagalog:     tagalogOrdinals,
		numberWords: numberWords,
		temporal:    temporalMarkers,
		stopwords:   stopwords,
	}
	for word, idx := range englishOrdinals {
		t.english[word] = idx
	}
	// Numeric suffix forms ("1st".."20th") count as English ordinals.
	for n := 1; n <= 20; n++ {
		t.english[ordinalSuffix(n)] = n - 1
	}
	return t
}

// EnglishOrdinal maps a single English ordinal word to its 0-based index.
func (t *Tables) EnglishOrdinal(word string) (int, bool) {
	idx, ok := t.english[fold(word)]
	return idx, ok
}

// TagalogOrdinal maps a single Tagalog ordinal word to its 0-based index.
func (t *Tables) TagalogOrdinal(word string) (int, bool) {
	idx, ok := t.tagalog[fold(word)]
	return idx, ok
}

// OrdinalIndex maps an ordinal word from either language to its 0-based index.
func (t *Tables) OrdinalIndex(word string) (int, bool) {
	if idx, ok := t.EnglishOrdinal(word); ok {
		return idx, true
	}
	return t.TagalogOrdinal(word)
}

// ScanOrdinal finds the leftmost ordinal word from either language anywhere
// in the input ("yung una" matches "una"). It returns the 0-based index and
// the matched word.
func (t *Tables) ScanOrdinal(input string) (int, string, bool) {
	for _, tok := range Tokenize(input) {
		if idx, ok := t.OrdinalIndex(tok); ok {
			return idx, tok, true
		}
	}
	return 0, "", false
}

// TemporalIndicators returns the temporal marker words present in the input,
// in order of appearance. Empty when none are present.
func (t *Tables) TemporalIndicators(input string) []string {
	var found []string
	for _, tok := range Tokenize(input) {
		if t.temporal[tok] {
			found = append(found, tok)
		}
	}
	return found
}

var relativeCountPattern = regexp.MustCompile(
	`(?i)\b(\d+|one|two|three|four|five|six|seven|eight|nine|ten|isa|dalawa|tatlo|apat|lima|anim|pito|walo|siyam|sampu)\s+(?:quer(?:y|ies)|questions?|messages?|turns?|tanong)\s+(?:ago|back)\b`)

// fixedRelative lists fixed relative phrases with their offsets from the
// current turn, longest first so "the one before" wins over "one before".
// "before that" points one behind the previous turn.
var fixedRelative = []struct {
	phrase string
	offset int
}{
	{"the one before", 2},
	{"one before", 2},
	{"before that", 2},
	{"bago nito", 2},
	{"bago iyon", 2},
}

// RelativeOffset extracts a relative reference ("two queries ago",
// "before that") as an offset from the current turn. "One query ago" is the
// immediately preceding turn (offset 1).
func (t *Tables) RelativeOffset(input string) (int, string, bool) {
	folded := fold(input)

	if m := relativeCountPattern.FindStringSubmatch(folded); m != nil {
		if n, ok := t.numberWords[m[1]]; ok {
			return n, strings.TrimSpace(m[0]), true
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n, strings.TrimSpace(m[0]), true
		}
	}

	for _, fixed := range fixedRelative {
		if strings.Contains(folded, fixed.phrase) {
			return fixed.offset, fixed.phrase, true
		}
	}
	return 0, "", false
}

// Keywords tokenizes the text and drops stopwords from both languages and
// tokens shorter than three characters. Used for lexical topical matching.
func (t *Tables) Keywords(text string) []string {
	var kws []string
	for _, tok := range Tokenize(text) {
		if len(tok) < 3 || t.stopwords[tok] {
			continue
		}
		kws = append(kws, tok)
	}
	return kws
}

// Tokenize lowercases the input and splits it into word tokens. Hyphens are
// kept inside tokens so forms like "pang-apat" survive as one word.
func Tokenize(s string) []string {
	raw := strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-'
	})
	toks := raw[:0]
	for _, tok := range raw {
		tok = strings.Trim(tok, "-")
		if tok != "" {
			toks = append(toks, tok)
		}
	}
	return toks
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ordinalSuffix renders n as its suffixed numeral form ("1st", "12th").
func ordinalSuffix(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
