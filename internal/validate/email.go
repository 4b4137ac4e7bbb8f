package validate

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidEmail is returned for addresses that are not a bare user@domain.tld.
var ErrInvalidEmail = errors.New("invalid email format")

// RFC 5321 limits.
const (
	maxEmailLength = 254
	maxLocalPart   = 64
)

var (
	localPattern = regexp.MustCompile(`^[a-z0-9!#$%&'*+/=?^_{|}~\-]+(\.[a-z0-9!#$%&'*+/=?^_{|}~\-]+)*$`)
	labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-]*[a-z0-9])?$`)
	tldPattern   = regexp.MustCompile(`^[a-z]{2,}$`)
)

// Email trims and lowercases an address and checks it is a plain
// dot-atom@host.tld. Emails are account keys, so the returned form is the one
// to store and compare.
func Email(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmpty
	}
	if len(email) > maxEmailLength {
		return "", ErrStringTooLong
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "", ErrInvalidEmail
	}
	if len(local) > maxLocalPart {
		return "", ErrStringTooLong
	}
	if !localPattern.MatchString(local) || !validDomain(domain) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func validDomain(domain string) bool {
	labels := strings.Split(domain, ".")
	if len(labels) < 2 || !tldPattern.MatchString(labels[len(labels)-1]) {
		return false
	}
	for _, l := range labels {
		if len(l) > 63 || !labelPattern.MatchString(l) {
			return false
		}
	}
	return true
}
