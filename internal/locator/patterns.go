package locator

import (
	"regexp"
	"strings"
)

var (
	// ", Acton, MA 01720"
	cityCommaStateZipRe = regexp.MustCompile(`,\s*([^,]+?),\s*[A-Za-z]{2}\.?\s+\d{5}(?:-\d{4})?\b`)
	// ", Acton MA 01720"
	cityStateZipRe = regexp.MustCompile(`,\s*([^,]+?)\s+[A-Za-z]{2}\.?\s+\d{5}(?:-\d{4})?\b`)
	// "Acton MA" / "Acton, MA" with no ZIP
	cityStateRe = regexp.MustCompile(`([A-Za-z][A-Za-z.' -]*?),?\s+[A-Z]{2}\b`)

	inPhraseRe      = regexp.MustCompile(`(?i)\bin\s+(?:the\s+)?([a-z][a-z.'-]*(?:\s+[a-z][a-z.'-]*)?)`)
	servingPhraseRe = regexp.MustCompile(`(?i)\bserving\s+(?:the\s+)?([a-z][a-z.'-]*(?:\s+[a-z][a-z.'-]*)?)`)
	areaPhraseRe    = regexp.MustCompile(`(?i)\b([a-z][a-z.'-]*(?:\s+[a-z][a-z.'-]*)?)\s+area\b`)

	// "Acton-Congregational Church" / "Acton - Lions Club"
	orgPrefixRe = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z.' ]*?)\s*-\s*\S`)

	givenNameRe = regexp.MustCompile(`^[A-Z][a-z]+$`)

	streetNumberRe = regexp.MustCompile(`\b\d+[A-Za-z]?\s+[A-Za-z]{2,}`)
	streetRe       = regexp.MustCompile(`(?i)\b\d+[a-z]?(?:-\d+)?\s+(?:[a-z0-9.'-]+\s+){1,4}(?:st|street|rd|road|ave|avenue|dr|drive|ln|lane|way|blvd|boulevard|ct|court|pl|place|ter|terrace|pkwy|parkway|cir|circle|hwy|highway|tpke|turnpike|sq|square|pike)\b`)
	poBoxRe        = regexp.MustCompile(`(?i)\b(?:p\.?\s*o\.?\s*box|post\s+office\s+box|box)\s*#?\s*\d+`)
)

// orgKeywords mark an organization name where a capitalized word before a
// locality is part of the organization's name ("Smith Sterling Legion Post").
var orgKeywords = []string{"legion", "vfw", "post"}

// nonNameWords are capitalized words that commonly precede a locality in an
// organization name without being a person's given name.
var nonNameWords = map[string]bool{
	"North": true, "South": true, "East": true, "West": true, "Central": true,
	"First": true, "Second": true, "Old": true, "New": true, "Greater": true,
	"Church": true, "Parish": true, "Congregational": true, "Methodist": true,
	"Baptist": true, "Lutheran": true, "Catholic": true, "Episcopal": true,
	"Unitarian": true, "Community": true, "United": true, "Federated": true,
	"School": true, "Elementary": true, "Middle": true, "High": true,
	"Fire": true, "Police": true, "Department": true, "Town": true, "City": true,
	"Rotary": true, "Lions": true, "Kiwanis": true, "Elks": true, "Moose": true,
	"Grange": true, "Lodge": true, "Friends": true, "Parents": true, "Citizens": true,
	"Boosters": true, "Club": true, "Association": true, "Center": true, "Centre": true,
	"Scouts": true, "Scouting": true, "Council": true, "Inc": true, "PTO": true, "PTA": true,
}

// HasStreetAddress reports whether s contains a street number followed by a
// recognized street type ("12 Main St").
func HasStreetAddress(s string) bool {
	return streetRe.MatchString(s)
}

// HasPOBox reports whether s contains a post-office-box reference.
func HasPOBox(s string) bool {
	return poBoxRe.MatchString(s)
}

// HasStreetNumber reports whether s contains a number followed by a word,
// the loosest sign of a street address.
func HasStreetNumber(s string) bool {
	return streetNumberRe.MatchString(s)
}

func containsKeyword(s string, words []string) bool {
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,;:()#'\"")
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
