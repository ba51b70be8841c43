package normalize

import "strings"

// Uncategorized is returned when no training keyword matches a title.
const Uncategorized = "Uncategorized"

type trainingKeyword struct {
	key   string
	label string
}

// Order matters: titles can contain several keywords ("Hybrid Essential")
// and the first match wins, so hybrid is tested before essential.
var trainingKeywords = []trainingKeyword{
	{"hybrid", "Essential – Hybrid"},
	{"essential", "Essential – In-Person"},
	{"advanced", "Advanced – In-Person"},
	{"virtual", "Virtual Training"},
	{"equine", "Specialty – Equine"},
	{"orthotic", "Specialty – Orthotic"},
	{"credential", "Credential Series"},
}

// TrainingType maps a free-text event title to its canonical training
// type label by case-insensitive substring match.
func TrainingType(title string) string {
	lower := strings.ToLower(title)
	for _, kw := range trainingKeywords {
		if strings.Contains(lower, kw.key) {
			return kw.label
		}
	}
	return Uncategorized
}
