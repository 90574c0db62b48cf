package utils

import (
	"fmt"
	"time"
)

// DateLayout is the key format of every daily collection.
const DateLayout = "2006-01-02"

// DateKey formats t as a daily collection key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns today's key in loc.
func Today(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return DateKey(time.Now().In(loc))
}

// ParseDate checks that s is a YYYY-MM-DD date and returns it unchanged.
func ParseDate(s string) (string, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return s, nil
}

// DatesBetween lists every date key from..to inclusive. An inverted range is empty.
func DatesBetween(from, to string) ([]string, error) {
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", from)
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", to)
	}

	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, DateKey(d))
	}
	return out, nil
}
