package vocab

// englishOrdinals maps English ordinal words to 0-based indices.
var englishOrdinals = map[string]int{
	"first":   0,
	"second":  1,
	"third":   2,
	"fourth":  3,
	"fifth":   4,
	"sixth":   5,
	"seventh": 6,
	"eighth":  7,
	"ninth":   8,
	"tenth":   9,
}

// tagalogOrdinals maps Tagalog ordinal words to 0-based indices. Both the
// ika- and pang- forms are in everyday use.
var tagalogOrdinals = map[string]int{
	"una":       0,
	"ikalawa":   1,
	"pangalawa": 1,
	"ikatlo":    2,
	"pangatlo":  2,
	"ikaapat":   3,
	"ika-apat":  3,
	"pang-apat": 3,
	"ikalima":   4,
	"panlima":   4,
	"ikaanim":   5,
	"ika-anim":  5,
	"ikapito":   6,
	"ikawalo":   7,
	"ikasiyam":  8,
	"ikasampu":  9,
}

// numberWords maps cardinal number words from both languages to their values,
// for relative references like "two queries ago".
var numberWords = map[string]int{
	"one":    1,
	"two":    2,
	"three":  3,
	"four":   4,
	"five":   5,
	"six":    6,
	"seven":  7,
	"eight":  8,
	"nine":   9,
	"ten":    10,
	"isa":    1,
	"dalawa": 2,
	"tatlo":  3,
	"apat":   4,
	"lima":   5,
	"anim":   6,
	"pito":   7,
	"walo":   8,
	"siyam":  9,
	"sampu":  10,
}

// temporalMarkers are single words signalling a reference to earlier turns.
// "before" is deliberately absent: bare "before that" is a relative
// reference, not a temporal one.
var temporalMarkers = map[string]bool{
	"earlier":    true,
	"last":       true,
	"previous":   true,
	"previously": true,
	"recent":     true,
	"recently":   true,
	"prior":      true,
	"kanina":     true,
	"dati":       true,
	"noon":       true,
	"nakaraan":   true,
	"huli":       true,
	"huling":     true,
	"pinakahuli": true,
}

// stopwords are filtered out before lexical keyword matching, both languages.
var stopwords = map[string]bool{
	// English
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"were": true, "what": true, "when": true, "where": true, "which": true,
	"who": true, "how": true, "why": true, "did": true, "does": true,
	"about": true, "with": true, "from": true, "that": true, "this": true,
	"these": true, "those": true, "you": true, "your": true, "our": true,
	"can": true, "could": true, "would": true, "should": true, "tell": true,
	"show": true, "give": true, "again": true, "please": true, "one": true,
	// Tagalog
	"ang": true, "nga": true, "mga": true, "ako": true, "ikaw": true,
	"siya": true, "ito": true, "iyan": true, "iyon": true, "yun": true,
	"yung": true, "naman": true, "lang": true, "din": true, "rin": true,
	"pero": true, "kasi": true, "para": true, "may": true, "wala": true,
	"meron": true, "ano": true, "paano": true, "bakit": true, "kailan": true,
	"sino": true, "saan": true, "ulit": true, "muli": true, "sana": true,
}
