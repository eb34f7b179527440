// Package locator extracts a locality from the inconsistent free-text fields
// of a raw unit record.
package locator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/council-ops/unit-roster/internal/gazetteer"
)

// Strategy names recorded on a Result.
const (
	ViaAddress     = "address"
	ViaDescription = "description"
	ViaOrgPrefix   = "organization_prefix"
	ViaOrgScan     = "organization_scan"
)

// maxSuffixWords bounds how many trailing words of a captured address
// fragment are tried as a locality.
const maxSuffixWords = 3

// Outcome is the tagged result of one extraction step.
type Outcome struct {
	Value string
	Found bool
}

func found(v string) Outcome { return Outcome{Value: v, Found: true} }

var notFound = Outcome{}

// Input carries the candidate text sources for one record. Empty strings
// stand for absent fields.
type Input struct {
	Address      string
	Description  string
	Organization string
}

// Result is the outcome of a full resolution.
type Result struct {
	Outcome
	// Via names the strategy that produced the locality.
	Via string
	// Location is the address text kept when it carries a street number but
	// names no known locality.
	Location string
}

type step struct {
	name string
	fn   func(Input) Outcome
}

// Resolver runs the extraction strategies in priority order; the first step
// that finds a locality wins.
type Resolver struct {
	gz    *gazetteer.Gazetteer
	log   *zap.Logger
	steps []step
}

// New creates a Resolver. A nil logger discards output.
func New(gz *gazetteer.Gazetteer, log *zap.Logger) (*Resolver, error) {
	if gz == nil || gz.Len() == 0 {
		return nil, gazetteer.ErrEmpty
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{gz: gz, log: log}
	r.steps = []step{
		{ViaAddress, func(in Input) Outcome { return r.FromAddress(in.Address) }},
		{ViaDescription, func(in Input) Outcome { return r.FromDescription(in.Description) }},
		{ViaOrgPrefix, func(in Input) Outcome { return r.fromOrgPrefix(in.Organization) }},
		{ViaOrgScan, func(in Input) Outcome { return r.fromOrgScan(in.Organization) }},
	}
	return r, nil
}

// Resolve returns the first locality found across address, description and
// organization text. A Result with Found false is an extraction failure; the
// caller decides whether to drop the record.
func (r *Resolver) Resolve(address, description, organization string) Result {
	in := Input{Address: address, Description: description, Organization: organization}

	var res Result
	for _, s := range r.steps {
		out := s.fn(in)
		if !out.Found {
			continue
		}
		res.Outcome = out
		res.Via = s.name
		break
	}

	if res.Via != ViaAddress && HasStreetNumber(address) {
		res.Location = strings.TrimSpace(address)
	}

	if res.Found {
		r.log.Debug("locator: resolved",
			zap.String("via", res.Via),
			zap.String("locality", res.Value),
		)
	} else {
		r.log.Debug("locator: no locality found",
			zap.String("address", address),
			zap.String("organization", organization),
		)
	}
	return res
}

// FromAddress searches address-like text for "<locality>, <ST> <ZIP>",
// "<locality> <ST> <ZIP>" and, failing those, "<locality> <ST>".
func (r *Resolver) FromAddress(text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return notFound
	}
	for _, re := range []*regexp.Regexp{cityCommaStateZipRe, cityStateZipRe, cityStateRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if loc, ok := r.suffixLocality(m[1]); ok {
				return found(loc)
			}
		}
	}
	return notFound
}

// FromDescription applies the address patterns to prose, then looks for
// "in <locality>", "serving <locality>" and "<locality> area" phrases of at
// most two words.
func (r *Resolver) FromDescription(text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return notFound
	}
	if out := r.FromAddress(text); out.Found {
		return out
	}
	for _, re := range []*regexp.Regexp{inPhraseRe, servingPhraseRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if loc, ok := r.prefixLocality(m[1]); ok {
				return found(loc)
			}
		}
	}
	for _, m := range areaPhraseRe.FindAllStringSubmatch(text, -1) {
		if loc, ok := r.suffixLocality(m[1]); ok {
			return found(loc)
		}
	}
	return notFound
}

// FromOrganization runs both organization-name strategies.
func (r *Resolver) FromOrganization(text string) Outcome {
	if out := r.fromOrgPrefix(text); out.Found {
		return out
	}
	return r.fromOrgScan(text)
}

func (r *Resolver) fromOrgPrefix(text string) Outcome {
	m := orgPrefixRe.FindStringSubmatch(text)
	if m == nil {
		return notFound
	}
	if loc, ok := r.gz.Canonical(m[1]); ok {
		return found(loc)
	}
	return notFound
}

// fromOrgScan looks for any known spelling as a whole word, longest first.
// A match directly preceded by what looks like a given name is skipped so
// that a surname such as "John Sterling" is not read as a locality.
func (r *Resolver) fromOrgScan(text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return notFound
	}
	plain := strings.Join(strings.Fields(strings.ReplaceAll(text, ".", " ")), " ")
	folded := gazetteer.Fold(plain)
	aligned := utf8.RuneCountInString(plain) == len(plain) && len(plain) == len(folded)
	hasKeyword := containsKeyword(plain, orgKeywords)

	for _, s := range r.gz.Surfaces() {
		for _, idx := range wordIndexes(folded, s.Text) {
			if aligned && !hasKeyword && precededByGivenName(plain, idx) {
				r.log.Debug("locator: skipped person-name match",
					zap.String("organization", text),
					zap.String("locality", s.Canonical),
				)
				continue
			}
			return found(s.Canonical)
		}
	}
	return notFound
}

// suffixLocality tries the trailing one to three words of frag, longest
// first, so "12 Main St West Boylston" yields West Boylston.
func (r *Resolver) suffixLocality(frag string) (string, bool) {
	words := strings.Fields(frag)
	for n := min(maxSuffixWords, len(words)); n >= 1; n-- {
		if loc, ok := r.gz.Canonical(strings.Join(words[len(words)-n:], " ")); ok {
			return loc, true
		}
	}
	return "", false
}

// prefixLocality tries the whole two-word capture, then its first word.
func (r *Resolver) prefixLocality(frag string) (string, bool) {
	words := strings.Fields(frag)
	for n := len(words); n >= 1; n-- {
		if loc, ok := r.gz.Canonical(strings.Join(words[:n], " ")); ok {
			return loc, true
		}
	}
	return "", false
}

// wordIndexes returns every offset where needle occurs in text bounded by
// non-alphanumeric characters.
func wordIndexes(text, needle string) []int {
	var out []int
	start := 0
	for {
		i := strings.Index(text[start:], needle)
		if i < 0 {
			return out
		}
		abs := start + i
		end := abs + len(needle)
		if (abs == 0 || !isAlphaNum(text[abs-1])) && (end == len(text) || !isAlphaNum(text[end])) {
			out = append(out, abs)
		}
		start = abs + 1
	}
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func precededByGivenName(text string, idx int) bool {
	if idx < 2 || text[idx-1] != ' ' {
		return false
	}
	before := strings.Fields(text[:idx])
	if len(before) == 0 {
		return false
	}
	w := before[len(before)-1]
	return givenNameRe.MatchString(w) && !nonNameWords[w]
}
