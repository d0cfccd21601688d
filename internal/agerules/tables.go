package agerules

// Ages outside this range are never produced, whether tabulated or parsed.
const (
	minAge = 0
	maxAge = 21
)

// unknownCerts always resolve to Unknown, ahead of aliases and the numeric fallback.
//
//nolint:gochecknoglobals // Static lookup table
var unknownCerts = map[string]bool{
	"NR":        true,
	"UNRATED":   true,
	"NOT RATED": true,
	"N/A":       true,
	"NONE":      true,
}

// tvAliases are US TV tokens that providers emit without the "TV-" qualifier.
// They apply to TV content in every region.
//
//nolint:gochecknoglobals // Static lookup table
var tvAliases = map[string]int{
	"Y":  0,
	"Y7": 7,
	"MA": 17,
}

// Per-region certification schemes, keyed by normalized certification.
//
//nolint:gochecknoglobals // Static lookup tables
var (
	certsAU = map[string]int{"G": 0, "PG": 10, "M": 15, "MA15+": 15, "R18+": 18}
	certsBR = map[string]int{"L": 0, "10": 10, "12": 12, "14": 14, "16": 16, "18": 18}
	certsCA = map[string]int{"G": 0, "PG": 10, "14A": 14, "18A": 18, "R": 18}
	certsDE = map[string]int{
		"0": 0, "6": 6, "12": 12, "16": 16, "18": 18,
		"FSK 0": 0, "FSK 6": 6, "FSK 12": 12, "FSK 16": 16, "FSK 18": 18,
	}
	certsDK = map[string]int{"A": 0, "7": 7, "11": 11, "15": 15, "17": 17, "18": 18}
	certsES = map[string]int{"A": 0, "APTA": 0, "TP": 0, "7": 7, "7I": 7, "12": 12, "16": 16, "18": 18}
	certsFI = map[string]int{"S": 0, "7": 7, "12": 12, "16": 16, "18": 18}
	certsFR = map[string]int{
		"U": 0, "TP": 0, "6": 6, "7": 7, "10": 10, "12": 12,
		"13": 13, "14": 14, "15": 15, "16": 16, "18": 18,
	}
	certsGB = map[string]int{"U": 0, "PG": 10, "12": 12, "12A": 12, "15": 15, "18": 18, "R18": 18}
	certsIN = map[string]int{"U": 0, "UA": 12, "A": 18}
	certsIT = map[string]int{"T": 0, "VM12": 12, "VM14": 14, "VM18": 18}
	certsJP = map[string]int{"G": 0, "PG12": 12, "R15+": 15, "R18+": 18}
	certsKR = map[string]int{"ALL": 0, "7": 7, "12": 12, "15": 15, "19": 18}
	certsMX = map[string]int{"A": 0, "AA": 0, "B": 12, "B15": 15, "C": 18, "D": 18}
	certsNL = map[string]int{"AL": 0, "6": 6, "9": 9, "12": 12, "16": 16}
	certsNO = map[string]int{"A": 0, "6": 6, "9": 9, "12": 12, "15": 15, "18": 18}
	certsPT = map[string]int{"T": 0, "M/6": 6, "M/12": 12, "M/14": 14, "M/16": 16, "M/18": 18}
	certsRU = map[string]int{"0+": 0, "6+": 6, "12+": 12, "16+": 16, "18+": 18}
	certsSE = map[string]int{"BTL": 0, "7": 7, "11": 11, "15": 15, "18": 18}

	certsUSMovie = map[string]int{"G": 0, "PG": 10, "PG-13": 13, "13": 13, "R": 17, "NC-17": 18}
	certsUSTV    = map[string]int{"TV-Y": 0, "TV-Y7": 7, "TV-G": 0, "TV-PG": 10, "TV-14": 14, "TV-MA": 17}
)

// sharedSchemes lists the regions whose board rates movies and TV on one scale.
//
//nolint:gochecknoglobals // Static lookup table
var sharedSchemes = map[string]map[string]int{
	"AU": certsAU,
	"BR": certsBR,
	"CA": certsCA,
	"DE": certsDE,
	"DK": certsDK,
	"ES": certsES,
	"FI": certsFI,
	"FR": certsFR,
	"GB": certsGB,
	"IN": certsIN,
	"IT": certsIT,
	"JP": certsJP,
	"KR": certsKR,
	"MX": certsMX,
	"NL": certsNL,
	"NO": certsNO,
	"PT": certsPT,
	"RU": certsRU,
	"SE": certsSE,
}

// tables is the full Kind -> region -> certification -> age mapping.
//
//nolint:gochecknoglobals // Built once at init, read-only afterwards
var tables = buildTables()

func buildTables() map[Kind]map[string]map[string]int {
	movie := make(map[string]map[string]int, len(sharedSchemes)+1)
	tv := make(map[string]map[string]int, len(sharedSchemes)+1)
	for region, scheme := range sharedSchemes {
		movie[region] = scheme
		tv[region] = scheme
	}
	movie["US"] = certsUSMovie
	tv["US"] = certsUSTV

	return map[Kind]map[string]map[string]int{
		KindMovie: movie,
		KindTV:    tv,
	}
}

// Regions returns the region codes that have a certification table for kind, unsorted.
func Regions(kind Kind) []string {
	byRegion := tables[kind]
	regions := make([]string, 0, len(byRegion))
	for r := range byRegion {
		regions = append(regions, r)
	}
	return regions
}

// HasTable reports whether region has a certification table for kind.
// region must already be uppercase.
func HasTable(kind Kind, region string) bool {
	_, ok := tables[kind][region]
	return ok
}
