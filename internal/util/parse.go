package util

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var rateRe = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)([a-z]+)?$`)

// ParseRate parses a packet rate string (e.g., "8000", "8k", "1.5k") and
// returns packets per second. "0" and "max" mean unthrottled.
func ParseRate(input string) (int, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, errors.New("rate is empty")
	}
	if s == "max" || s == "unlimited" {
		return 0, nil
	}

	match := rateRe.FindStringSubmatch(s)
	if match == nil {
		return 0, fmt.Errorf("invalid rate %q", input)
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q", input)
	}

	switch match[2] {
	case "", "pps":
	case "k", "kpps":
		value *= 1e3
	case "m", "mpps":
		value *= 1e6
	default:
		return 0, fmt.Errorf("unknown rate unit %q", match[2])
	}
	if value < 0 || value > math.MaxInt32 {
		return 0, fmt.Errorf("rate %q out of range", input)
	}
	return int(math.Round(value)), nil
}

// ParseRateList parses a comma-separated list of rates (e.g., "1,10,100,1k").
func ParseRateList(input string) ([]int, error) {
	parts := strings.Split(input, ",")
	rates := make([]int, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		rate, err := ParseRate(part)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	if len(rates) == 0 {
		return nil, errors.New("rate list is empty")
	}
	return rates, nil
}
