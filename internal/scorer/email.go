package scorer

import (
	"regexp"
	"strings"

	"github.com/council-ops/unit-roster/internal/gazetteer"
)

var (
	unitRolePrefixRe = regexp.MustCompile(`^(?:scoutmaster|cubmaster|skipper|committee|advisor|adviser|unitleader|leader|chair|secretary|treasurer|membership|recruit)`)
	unitTokenRe      = regexp.MustCompile(`(?:pack|troop|crew|ship|post|club|cubs?|scouts?)[._-]?\d+|\d+[._-]?(?:pack|troop|crew|ship|post|club)`)
	pureUnitRe       = regexp.MustCompile(`^(?:pack|troop|crew|ship|post|club)[._-]?\d+$`)

	firstLastRe = regexp.MustCompile(`^([a-z]{2,})[._]([a-z]{2,})$`)
	initialsRe  = regexp.MustCompile(`^[a-z]{3}$`)

	initialsWordRe    = regexp.MustCompile(`^[a-z]{1,2}[._-][a-z]{3,}$`)
	wordSmallNumberRe = regexp.MustCompile(`^[a-z]{3,}\d{1,2}$`)

	familyDomainRe = regexp.MustCompile(`(?:family|fam)\.[a-z]+$`)
	digitsRe       = regexp.MustCompile(`\d+`)
)

// roleWords are local-part segments that never form half of a person's name.
var roleWords = map[string]bool{
	"pack": true, "troop": true, "crew": true, "ship": true, "post": true, "club": true,
	"cubs": true, "scouts": true, "scout": true, "scouting": true, "committee": true,
	"scoutmaster": true, "cubmaster": true, "skipper": true, "advisor": true, "leader": true,
	"chair": true, "info": true, "contact": true, "admin": true, "unit": true,
}

// personalDomains are residential ISP domains whose mailboxes belong to a
// household rather than an organization.
var personalDomains = map[string]bool{
	"comcast.net": true, "verizon.net": true, "charter.net": true, "att.net": true,
	"sbcglobal.net": true, "cox.net": true, "earthlink.net": true, "rcn.com": true,
	"juno.com": true, "netzero.net": true,
}

// freeProviders are consumer webmail domains.
var freeProviders = map[string]bool{
	"gmail.com": true, "yahoo.com": true, "hotmail.com": true, "outlook.com": true,
	"aol.com": true, "msn.com": true, "live.com": true, "icloud.com": true,
	"me.com": true, "mac.com": true, "protonmail.com": true, "ymail.com": true,
}

// IsPersonalEmail reports whether email looks like an individual's mailbox
// rather than a unit role account. The steps run in a fixed order and the
// order is part of the contract:
//
//  1. unit-role local parts ("scoutmaster...", "troop7") clear the flag
//  2. first.last names, three-letter initials, or household domains set it,
//     overriding step 1
//  3. a local part that is only a type and number clears it
//  4. the unit's own number or locality in the local part clears it
//  5. "initials.word" or "word12" local parts set it
//  6. otherwise, only free webmail domains set it
func IsPersonalEmail(email, unitNumber, locality string) bool {
	local, domain, ok := splitEmail(email)
	if !ok {
		return false
	}

	role := unitRolePrefixRe.MatchString(local) || unitTokenRe.MatchString(local)
	if personalName(local) || personalDomain(domain) {
		return true
	}
	if role {
		return false
	}
	if pureUnitRe.MatchString(local) {
		return false
	}
	if mentionsUnit(local, unitNumber, locality) {
		return false
	}
	if initialsWordRe.MatchString(local) || wordSmallNumberRe.MatchString(local) {
		return true
	}
	return freeProviders[domain]
}

func splitEmail(email string) (local, domain string, ok bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", "", false
	}
	return email[:at], email[at+1:], true
}

func personalName(local string) bool {
	if m := firstLastRe.FindStringSubmatch(local); m != nil {
		return !roleWords[m[1]] && !roleWords[m[2]]
	}
	return initialsRe.MatchString(local)
}

func personalDomain(domain string) bool {
	return personalDomains[domain] || familyDomainRe.MatchString(domain)
}

func mentionsUnit(local, unitNumber, locality string) bool {
	if n := strings.TrimLeft(unitNumber, "0"); n != "" {
		for _, run := range digitsRe.FindAllString(local, -1) {
			if strings.TrimLeft(run, "0") == n {
				return true
			}
		}
	}
	if locality != "" {
		town := strings.ReplaceAll(gazetteer.Fold(locality), " ", "")
		if town != "" && strings.Contains(strings.ReplaceAll(local, ".", ""), town) {
			return true
		}
	}
	return false
}
