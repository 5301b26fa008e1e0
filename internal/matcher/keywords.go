package matcher

import "strings"

// issuerFragments are normalized name fragments of common card issuers. A
// fragment found in the card name becomes a required keyword for the
// description filter.
var issuerFragments = []string{
	"楽天", "rakuten",
	"三井住友", "smbc",
	"jcb",
	"セゾン", "saison",
	"イオン", "aeon",
	"エポス", "epos",
	"オリコ", "orico",
	"ニコス", "nicos",
	"mufg",
	"ビュー", "view",
	"アメックス", "amex", "americanexpress",
	"ダイナース", "diners",
	"visa",
	"mastercard",
	"paypay",
}

// fallbackKeywords are generic tokens used when no issuer fragment appears
// in the card name.
var fallbackKeywords = []string{"カード", "クレジット", "card", "credit"}

// dashRunes covers the ASCII and Japanese dash variants seen in bank
// statement descriptions.
const dashRunes = "-‐‑–—―−ー･ｰ"

// normalize strips whitespace and dash characters and lower-cases, so that
// "ラクテン カード" and "ﾗｸﾃﾝｶｰﾄﾞ"-style spellings compare loosely.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == ' ' || r == '\t' || r == '　' {
			continue
		}
		if strings.ContainsRune(dashRunes, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// keywordsForCard derives the description keywords from a card name: every
// issuer fragment the name contains, or the generic fallback set when none
// match. Keywords are returned in normalized form; long-vowel marks count
// as dashes, so "カード" compares as "カド".
func keywordsForCard(cardName string) []string {
	name := normalize(cardName)
	var keywords []string
	for _, frag := range issuerFragments {
		if nf := normalize(frag); strings.Contains(name, nf) {
			keywords = append(keywords, nf)
		}
	}
	if len(keywords) == 0 {
		for _, kw := range fallbackKeywords {
			keywords = append(keywords, normalize(kw))
		}
	}
	return keywords
}

// descriptionMatches reports whether the normalized description contains at
// least one keyword.
func descriptionMatches(description string, keywords []string) bool {
	desc := normalize(description)
	for _, kw := range keywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
