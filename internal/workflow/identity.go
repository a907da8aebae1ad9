package workflow

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"consentflow/internal/progress"
)

const (
	maxNameLength   = 255
	nhsNumberLength = 10
	minDOBYear      = 1900
	maxDOBYear      = 3000
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]+`)
	postcodePattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{1,2}[A-Z]? [0-9][A-Z]{2}$`)
)

// normalizeName trims a name part and checks it is present and not too long.
func normalizeName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > maxNameLength {
		return "", false
	}
	return s, true
}

// parseDOB validates a calendar date from its three entered parts.
func parseDOB(day, month, year string) (*progress.DateOfBirth, bool) {
	d, errD := strconv.Atoi(strings.TrimSpace(day))
	m, errM := strconv.Atoi(strings.TrimSpace(month))
	y, errY := strconv.Atoi(strings.TrimSpace(year))
	if errD != nil || errM != nil || errY != nil {
		return nil, false
	}
	if d < 1 || d > 31 || m < 1 || m > 12 || y < minDOBYear || y > maxDOBYear {
		return nil, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return nil, false
	}
	return &progress.DateOfBirth{Day: d, Month: m, Year: y}, true
}

// normalizeNHSNumber strips everything but digits and requires ten of them.
func normalizeNHSNumber(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n := b.String()
	if len(n) != nhsNumberLength {
		return "", false
	}
	return n, true
}

// validNHSChecksum applies the modulus 11 check digit rule.
func validNHSChecksum(n string) bool {
	if len(n) != nhsNumberLength {
		return false
	}
	sum := 0
	for i := 0; i < nhsNumberLength-1; i++ {
		c := n[i]
		if c < '0' || c > '9' {
			return false
		}
		sum += int(c-'0') * (nhsNumberLength - i)
	}
	check := 11 - sum%11
	if check == 11 {
		check = 0
	}
	if check == 10 {
		return false
	}
	return int(n[nhsNumberLength-1]-'0') == check
}

// normalizePostcode uppercases, strips separators and reinserts the single
// space before the inward code.
func normalizePostcode(s string) (string, bool) {
	pc := nonAlphanumeric.ReplaceAllString(strings.ToUpper(s), "")
	if len(pc) < 5 {
		return "", false
	}
	pc = pc[:len(pc)-3] + " " + pc[len(pc)-3:]
	if !postcodePattern.MatchString(pc) {
		return "", false
	}
	return pc, true
}
