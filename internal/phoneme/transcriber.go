package phoneme

import "strings"

// Transcriber converts an English word into an ordered phoneme symbol
// sequence using a greedy, non-backtracking rule table:
//
//  1. Exception list: a whole-word match wins outright.
//  2. Otherwise scan left to right, consuming the longest matching substring
//     (4 letters down to 1) at each position. Characters no rule covers are
//     skipped without error.
//  3. A trailing silent "e" (but not "ee") lengthens the preceding short
//     vowel, e.g. "hat" a_short → "hate" ay.
//
// Transcription is deterministic and idempotent: the same word always yields
// the same sequence.
type Transcriber struct {
	rules map[string][]string
}

func NewTranscriber() *Transcriber {
	return &Transcriber{rules: defaultRules}
}

// Transcribe maps one word to phoneme symbols. Input is lowercased first.
// An empty word, or one made entirely of unmapped characters, yields an
// empty sequence.
func (t *Transcriber) Transcribe(word string) []string {
	word = strings.ToLower(word)

	if seq, ok := t.rules[word]; ok {
		return append([]string(nil), seq...)
	}

	var phonemes []string
	for i := 0; i < len(word); {
		matched := false
		for length := 4; length >= 1; length-- {
			if i+length > len(word) {
				continue
			}
			if seq, ok := t.rules[word[i:i+length]]; ok {
				phonemes = append(phonemes, seq...)
				i += length
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}

	// Magic-e rule: the vowel before the final consonant lengthens.
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "ee") && len(phonemes) > 1 {
		switch phonemes[len(phonemes)-2] {
		case "a_short", "i_short":
			phonemes[len(phonemes)-2] = "ay"
		case "o_short":
			phonemes[len(phonemes)-2] = "o_long"
		}
	}

	return phonemes
}

// defaultRules maps graphemes to phoneme sequences. Three layers: whole-word
// exceptions, digraphs/trigraphs, and a single-letter fallback for every
// ASCII letter so the scan always makes progress on alphabetic input.
var defaultRules = buildRules(map[string]string{
	// Whole-word exceptions.
	"a": "schwa", "is": "i_short z", "of": "schwa v", "the": "th schwa",
	"to": "t u_long", "and": "a_short n d", "in": "i_short n", "that": "th a_short t",
	"it": "i_short t", "with": "w i_short th", "for": "f o_short r", "was": "w schwa z",
	"on": "o_short n", "as": "a_short z", "are": "ar", "be": "b iy",
	"this": "th i_short s", "hello": "h e_short l o_long",
	"world": "w er l d", "robot": "r o_long b o_short t",
	"java": "j a_short v schwa", "engine": "e_short n j i_short n",
	"synthesizer": "s i_short n th schwa s ay z er",
	"advanced":    "schwa d v a_short n s t",
	"data":        "d ay t schwa",
	"accurate":    "a_short k y er schwa t",
	"listen":      "l i_short s schwa n",
	"difference":  "d i_short f r schwa n s",
	"between":     "b schwa t w iy n",
	"tea":         "t iy",
	"two":         "t u_long",
	"see":         "s iy",
	"sue":         "s u_long",
	"version":     "v er zh schwa n",
	"much":        "m schwa ch",
	"more":        "m o_long r",
	"test":        "t e_short s t",

	// Digraphs and longer clusters; matched before single letters.
	"tion": "sh schwa n",
	"sh":   "sh", "ch": "ch", "th": "th", "ph": "f",
	"qu": "k w", "oo": "u_long", "ee": "iy",
	"ou": "aw", "ay": "ay", "ai": "ay", "oi": "oy",

	// Single-letter fallbacks.
	"b": "b", "c": "k", "d": "d",
	"e": "e_short", "f": "f", "g": "g", "h": "h",
	"i": "i_short", "j": "j", "k": "k", "l": "l",
	"m": "m", "n": "n", "o": "o_short", "p": "p",
	"q": "k", "r": "r", "s": "s", "t": "t", "u": "u_short",
	"v": "v", "w": "w", "x": "k s", "y": "iy", "z": "z",
})

func buildRules(src map[string]string) map[string][]string {
	rules := make(map[string][]string, len(src))
	for grapheme, seq := range src {
		rules[grapheme] = strings.Fields(seq)
	}
	return rules
}
