// Package textnorm canonicalizes Persian text before it is indexed or compared.
//
// Normalization only substitutes characters and collapses whitespace; it does
// not stem or otherwise alter words.
package textnorm

import "strings"

// letters maps Arabic letter variants onto their Persian canonical forms.
// The heh + hamza-above sequence is listed first so it wins over any
// single-rune rule starting at the same position.
var letters = strings.NewReplacer(
	"هٔ", "ه", // heh with hamza above
	"ي", "ی", // arabic yeh
	"ك", "ک", // arabic kaf
	"أ", "ا", // alef with hamza above
	"إ", "ا", // alef with hamza below
	"ؤ", "و", // waw with hamza
	"ئ", "ی", // yeh with hamza
	"ۀ", "ه", // heh with yeh above
	"ة", "ه", // teh marbuta
	"‌", " ", // zero-width non-joiner
	"ـ", "", // tatweel
)

// Normalize returns text with legacy letter forms replaced, every run of
// Unicode whitespace collapsed to a single space and the ends trimmed. It is
// idempotent.
func Normalize(text string) string {
	text = replaceLetters(text)
	return strings.Join(strings.Fields(text), " ")
}

// replaceLetters applies letters until nothing changes. Dropping a tatweel or
// folding heh with yeh above can leave a heh directly before a hamza, which
// only the next pass collapses. Only that rule can create new matches and
// it shortens the text, so the loop ends.
func replaceLetters(text string) string {
	for {
		next := letters.Replace(text)
		if next == text {
			return text
		}
		text = next
	}
}

// NormalizeOptional normalizes text when present and keeps absence intact.
func NormalizeOptional(text *string) *string {
	if text == nil {
		return nil
	}
	normalized := Normalize(*text)
	return &normalized
}
