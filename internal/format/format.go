// Package format holds the pure display helpers of the reception screens:
// document masks, ages, dates and the labels of movement statuses and types.
package format

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	isoDate       = "2006-01-02"
	brDate        = "02/01/2006"
	brDateTime    = "02/01/2006 15:04"
	notAvailable  = "N/A"
	notInformed   = "Não informado"
	emptyDateTime = "-"
)

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// MaskCPF renders ddd.ddd.ddd-dd once all 11 digits are present.
func MaskCPF(s string) string {
	d := clip(DigitsOnly(s), 11)
	if len(d) != 11 {
		return d
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}

// MaskPhone renders mobile (11 digits) and landline (10 digits) numbers.
func MaskPhone(s string) string {
	d := clip(DigitsOnly(s), 11)
	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	}
	return d
}

// MaskCEP renders ddddd-ddd.
func MaskCEP(s string) string {
	d := clip(DigitsOnly(s), 8)
	if len(d) != 8 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// ParseDate accepts YYYY-MM-DD, optionally followed by a time part.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(isoDate) {
		return time.Time{}, false
	}
	t, err := time.Parse(isoDate, s[:len(isoDate)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Age is the number of full years between birth and now.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// AgeLabel renders "N anos" for an ISO birth date.
func AgeLabel(birthISO string, now time.Time) string {
	birth, ok := ParseDate(birthISO)
	if !ok {
		return notAvailable
	}
	return strconv.Itoa(Age(birth, now)) + " anos"
}

// FormatDate renders an ISO date as dd/mm/yyyy.
func FormatDate(iso string) string {
	t, ok := ParseDate(iso)
	if !ok {
		return notAvailable
	}
	return t.Format(brDate)
}

// FormatDateTime renders an RFC 3339 or "YYYY-MM-DD HH:MM:SS" timestamp as dd/mm/yyyy HH:MM.
func FormatDateTime(ts string) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return emptyDateTime
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", isoDate} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format(brDateTime)
		}
	}
	return emptyDateTime
}

// DateForInput normalises a date to the YYYY-MM-DD form used by date inputs.
func DateForInput(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format(isoDate)
	}
	if t, err := time.Parse(brDate, strings.TrimSpace(s)); err == nil {
		return t.Format(isoDate)
	}
	return ""
}

// SexLabel maps the stored sex code.
func SexLabel(code string) string {
	if code == "M" {
		return "Masculino"
	}
	return "Feminino"
}

var planLabels = map[string]string{
	"sus":        "SUS",
	"particular": "Particular",
	"unimed":     "Unimed",
	"amil":       "Amil",
	"bradesco":   "Bradesco Saúde",
	"outros":     "Outros",
}

// PlanLabel maps a convênio identifier to its display name.
func PlanLabel(plan string) string {
	if plan == "" {
		return notInformed
	}
	if l, ok := planLabels[strings.ToLower(plan)]; ok {
		return l
	}
	r := []rune(plan)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
