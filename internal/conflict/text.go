package conflict

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// opposingTerms are antonym pairs that signal contradictory intent when one
// side of a pair appears in each of two descriptions. Surface forms are
// listed explicitly; tokenization does no stemming.
var opposingTerms = [][2]string{
	{"increase", "decrease"},
	{"increase", "reduce"},
	{"expand", "reduce"},
	{"expand", "shrink"},
	{"grow", "shrink"},
	{"hire", "layoff"},
	{"hiring", "layoffs"},
	{"accelerate", "delay"},
	{"accelerate", "postpone"},
	{"centralize", "decentralize"},
	{"insource", "outsource"},
	{"adopt", "abandon"},
	{"adopt", "retire"},
	{"raise", "cut"},
	{"add", "remove"},
	{"onshore", "offshore"},
	{"automate", "manual"},
}

// contextKeywords are resource nouns whose presence in both descriptions
// grounds an antonym hit in a shared subject. An opposing-term hit without
// shared context is discarded to avoid false positives from generic
// antonym co-occurrence.
var contextKeywords = []string{
	"budget", "spending", "cost", "costs",
	"headcount", "staff", "staffing", "team", "teams",
	"marketing", "engineering", "sales", "support",
	"infrastructure", "cloud", "datacenter", "platform", "tooling",
	"vendor", "vendors", "supplier", "suppliers", "contract",
	"office", "region", "capacity", "inventory",
	"pricing", "product", "roadmap", "release",
}

// allocationTerms indicate that a description is claiming or consuming a
// resource, as opposed to merely mentioning it.
var allocationTerms = []string{
	"allocate", "allocated", "allocation",
	"assign", "assigned", "dedicate", "dedicated",
	"reserve", "reserved", "spend", "spent",
	"invest", "invested", "consume", "use", "using",
	"budgeted", "fund", "funded",
}

// underminingPhrases pairs objective phrases that work against each other
// even though neither negates the other literally.
var underminingPhrases = [][2]string{
	{"reduce spending", "hire more"},
	{"cut costs", "increase headcount"},
	{"cut costs", "expand the team"},
	{"freeze hiring", "grow the team"},
	{"freeze hiring", "accelerate delivery"},
	{"consolidate vendors", "diversify suppliers"},
	{"standardize tooling", "adopt best-of-breed"},
	{"reduce scope", "expand scope"},
	{"improve quality", "ship faster"},
	{"pay down technical debt", "ship faster"},
}

// negationTerms signal that a newer decision's text is declaring an earlier
// premise void.
var negationTerms = []string{
	"no longer", "not valid", "invalid", "invalidated",
	"obsolete", "deprecated", "supersede", "supersedes", "superseded",
	"replaces", "replaced", "abandon", "abandoned", "retire", "retiring",
	"reverses", "walked back",
}

// stopwords excluded from concept extraction.
var stopwords = map[string]bool{
	"the": true, "and": true, "that": true, "this": true, "with": true,
	"for": true, "are": true, "will": true, "our": true, "have": true,
	"has": true, "was": true, "were": true, "been": true, "from": true,
	"into": true, "over": true, "under": true, "about": true, "their": true,
	"would": true, "should": true, "could": true, "than": true, "then": true,
	"them": true, "they": true, "because": true, "which": true, "while": true,
	"when": true, "where": true, "what": true, "more": true, "most": true,
	"all": true, "any": true, "not": true, "its": true, "per": true,
}

// normalizeText lowercases and NFC-normalizes a description so that phrase
// and token comparison is stable across input encodings.
func normalizeText(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

// tokenize splits normalized text into a token set.
func tokenize(s string) map[string]bool {
	fields := strings.FieldsFunc(normalizeText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

// opposingHits counts antonym pairs split across the two token sets.
// Returns the count and a representative pair for the reason text.
func opposingHits(a, b map[string]bool) (int, [2]string) {
	count := 0
	var first [2]string
	for _, pair := range opposingTerms {
		if (a[pair[0]] && b[pair[1]]) || (a[pair[1]] && b[pair[0]]) {
			if count == 0 {
				first = pair
			}
			count++
		}
	}
	return count, first
}

// sharedContext returns the context keywords present in both token sets,
// sorted for deterministic output.
func sharedContext(a, b map[string]bool) []string {
	var shared []string
	for _, kw := range contextKeywords {
		if a[kw] && b[kw] {
			shared = append(shared, kw)
		}
	}
	sort.Strings(shared)
	return shared
}

// hasAllocationLanguage reports whether the token set claims or consumes a
// resource.
func hasAllocationLanguage(tokens map[string]bool) bool {
	for _, term := range allocationTerms {
		if tokens[term] {
			return true
		}
	}
	return false
}

// underminingHit looks for a curated pair of mutually-undermining objective
// phrases split across two normalized texts.
func underminingHit(normA, normB string) ([2]string, bool) {
	for _, pair := range underminingPhrases {
		if (strings.Contains(normA, pair[0]) && strings.Contains(normB, pair[1])) ||
			(strings.Contains(normA, pair[1]) && strings.Contains(normB, pair[0])) {
			return pair, true
		}
	}
	return [2]string{}, false
}

// negationHit returns the first negation/invalidation term in the text.
func negationHit(normText string) (string, bool) {
	for _, term := range negationTerms {
		if strings.Contains(normText, term) {
			return term, true
		}
	}
	return "", false
}

// conceptTokens extracts discriminating concept tokens from a description:
// tokens of four or more characters that are not stopwords.
func conceptTokens(s string) map[string]bool {
	out := make(map[string]bool)
	for tok := range tokenize(s) {
		if len(tok) >= 4 && !stopwords[tok] {
			out[tok] = true
		}
	}
	return out
}
