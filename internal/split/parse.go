package split

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidAmount        = errors.New("amount must be a number greater than zero")
	ErrTooFewParticipants   = errors.New("at least 2 participants are required")
	ErrDuplicateParticipant = errors.New("participant names must be unique")
	ErrNoItems              = errors.New("no item lines recognised")
)

var (
	reCurrency   = regexp.MustCompile(`(?i)^(?:rp\.?|idr|\$)\s*`)
	reDotGrouped = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d+)?$`)
	reComGrouped = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)
	reComDecimal = regexp.MustCompile(`^\d+,\d{1,2}$`)

	reItemLine = regexp.MustCompile(`^\s*(.+?)\s*-\s*((?i:rp\.?|idr|\$)?\s*[\d.,]+)\s*$`)
	reQuantity = regexp.MustCompile(`(?i)^(.+?)\s+x(\d+)$`)
)

// parseMoney accepts "50000", "50.25", "Rp 50.000", "$1,250.50" and "10,5".
func parseMoney(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = reCurrency.ReplaceAllString(s, "")
	switch {
	case reDotGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case reComGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case reComDecimal.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseAmount parses a bill total typed by the user.
func ParseAmount(s string) (float64, error) {
	v, ok := parseMoney(s)
	if !ok || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseParticipants splits a comma separated list of names, keeping input order.
func ParseParticipants(s string) ([]string, error) {
	var names []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, name)
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	if len(names) < 2 {
		return nil, ErrTooFewParticipants
	}
	return names, nil
}

// ParseItems reads one "<name> - <price>" item per line. Lines that do not
// match are skipped; a trailing " xN" on the name sets the quantity.
func ParseItems(text string) ([]LineItem, error) {
	var items []LineItem
	for _, line := range strings.Split(text, "\n") {
		m := reItemLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		price, ok := parseMoney(m[2])
		if !ok || price < 0 {
			continue
		}
		item := LineItem{Name: strings.TrimSpace(m[1]), Price: price, Quantity: 1}
		if q := reQuantity.FindStringSubmatch(item.Name); q != nil {
			if n, err := strconv.Atoi(q[2]); err == nil && n > 0 {
				item.Name = strings.TrimSpace(q[1])
				item.Quantity = n
			}
		}
		if item.Name == "" {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	return items, nil
}
