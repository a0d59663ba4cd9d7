package reconcile

import (
	"regexp"
	"strings"
)

// nameSuffixes are trimmed from company names before matching. The list
// grew out of real drift between the CRM and the tracking database, where
// the same customer shows up as "Acme, Inc." on one side and
// "Acme (renewal)" on the other.
var nameSuffixes = []string{
	", inc.", ", inc", " inc.", " inc",
	", llc", " llc", ", ltd", " ltd",
	" corporation", " corp", " company", " co.",
	", city of", " city of", ", town of", " town of",
	" department", " dept", " utilities", " utility",
	" water district", " water division", " water works", " waterworks",
	" water & sewer", " water and sewer",
	" renewal", " license",
}

var (
	trailingParens   = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	trailingBrackets = regexp.MustCompile(`\s*\[[^\]]*\]\s*$`)
)

// NormalizeName canonicalizes a company name for cross-system matching.
// It lowercases, strips legal and descriptive suffixes, drops trailing
// parentheticals, and collapses whitespace.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, suffix := range nameSuffixes {
		name = strings.ReplaceAll(name, suffix, "")
	}
	name = trailingParens.ReplaceAllString(name, "")
	name = trailingBrackets.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}
