// Package fraud classifies click requests from their user agent.
package fraud

import "regexp"

// Actions returned by Classify
const (
	ActionAllow = "allow"
	ActionBlock = "block"
)

// botPattern matches crawlers, scrapers, scripted HTTP clients and the default
// user agents of language runtimes.
var botPattern = regexp.MustCompile(`(?i)bot|crawl|spider|scrape|curl|wget|python|java`)

// Verdict is the result of Classify.
type Verdict struct {
	IsBot  bool
	Score  int
	Action string
}

// Classify is binary: a match scores 100 and blocks, anything else scores 0.
func Classify(userAgent string) Verdict {
	if botPattern.MatchString(userAgent) {
		return Verdict{IsBot: true, Score: 100, Action: ActionBlock}
	}
	return Verdict{IsBot: false, Score: 0, Action: ActionAllow}
}
