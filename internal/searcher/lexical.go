package searcher

import "strings"

// stopWords are dropped from queries before title matching. The list
// covers pronouns, articles, auxiliary verbs, and interrogatives so that
// conversational queries ("what is this") do not trigger the lexical
// stage at all.
var stopWords = map[string]struct{}{
	// pronouns
	"you": {}, "your": {}, "yours": {}, "she": {}, "her": {}, "hers": {},
	"him": {}, "his": {}, "they": {}, "them": {}, "their": {}, "theirs": {},
	"its": {}, "our": {}, "ours": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "who": {}, "whom": {}, "whose": {},
	// articles and common determiners
	"the": {}, "and": {}, "but": {}, "for": {}, "with": {}, "from": {},
	"into": {}, "about": {}, "any": {}, "all": {}, "some": {},
	// auxiliary verbs
	"are": {}, "was": {}, "were": {}, "been": {}, "being": {}, "does": {},
	"did": {}, "have": {}, "has": {}, "had": {}, "will": {}, "would": {},
	"can": {}, "could": {}, "should": {}, "shall": {}, "may": {},
	"might": {}, "must": {},
	// interrogatives
	"what": {}, "when": {}, "where": {}, "which": {}, "why": {}, "how": {},
}

// tokenizeQuery lowercases the query, strips punctuation, and splits on
// whitespace, dropping tokens of length <= 2 and stop words. An empty
// return means the lexical stage has nothing to work with.
func tokenizeQuery(query string) []string {
	lowered := strings.ToLower(query)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\t', r == '\n':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var keywords []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) <= 2 {
			continue
		}
		if _, ok := stopWords[tok]; ok {
			continue
		}
		keywords = append(keywords, tok)
	}
	return keywords
}

// scoreTitle rates how well a stored title matches the query keywords.
//
// The base component is the fraction of keywords that appear as a
// substring of at least one title word. A bonus of 0.1 per keyword found
// as a substring of the full lowercased title, capped at 0.3, rewards
// phrases that span word boundaries.
func scoreTitle(title string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	loweredTitle := strings.ToLower(title)
	titleWords := strings.Fields(loweredTitle)

	wordHits := 0
	fullHits := 0
	for _, kw := range keywords {
		for _, tw := range titleWords {
			if strings.Contains(tw, kw) {
				wordHits++
				break
			}
		}
		if strings.Contains(loweredTitle, kw) {
			fullHits++
		}
	}

	score := float64(wordHits) / float64(len(keywords))
	bonus := 0.1 * float64(fullHits)
	if bonus > 0.3 {
		bonus = 0.3
	}
	return score + bonus
}
