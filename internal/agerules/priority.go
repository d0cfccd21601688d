package agerules

import "strings"

// ParsePriority turns a comma-separated region list into an ordered list of unique,
// uppercase region codes with homeRegion first.
//
// Tokens that are not 2 or 3 characters long after trimming are dropped silently.
// A blank homeRegion leaves the parsed order untouched.
//
//	ParsePriority("us, fr,US,,gbr,x", "DE") -> [DE US FR GBR]
func ParsePriority(csv, homeRegion string) []string {
	parts := strings.Split(csv, ",")
	regions := make([]string, 0, len(parts)+1)
	seen := make(map[string]bool, len(parts)+1)

	for _, p := range parts {
		code := strings.ToUpper(strings.TrimSpace(p))
		if len(code) < 2 || len(code) > 3 {
			continue
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		regions = append(regions, code)
	}

	home := strings.ToUpper(strings.TrimSpace(homeRegion))
	if home == "" {
		return regions
	}

	ordered := make([]string, 0, len(regions)+1)
	ordered = append(ordered, home)
	for _, r := range regions {
		if r != home {
			ordered = append(ordered, r)
		}
	}
	return ordered
}
