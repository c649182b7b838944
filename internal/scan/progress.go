package scan

import "regexp"

// ProgressRule pairs an output pattern with the percentage it signals.
type ProgressRule struct {
	Pattern *regexp.Regexp
	Percent int
}

// progressRules is evaluated in order and the first match wins. Reordering changes the
// reported percentages.
var progressRules = []ProgressRule{
	{Pattern: regexp.MustCompile(`(?i)Enumerating all subdirectories`), Percent: 20},
	{Pattern: regexp.MustCompile(`(?i)Splitting large directories`), Percent: 40},
	{Pattern: regexp.MustCompile(`(?i)Enumerating files`), Percent: 60},
	{Pattern: regexp.MustCompile(`(?i)file enumeration complete`), Percent: 90},
	{Pattern: regexp.MustCompile(`(?i)AUDIT COMPLETE`), Percent: 100},
}

// ProgressRules returns a copy of the ordered reference rules.
func ProgressRules() []ProgressRule {
	return append([]ProgressRule{}, progressRules...)
}

// ClassifyProgress returns the percentage of the first rule matching line. The boolean
// is false when no rule matches and progress should stay unchanged.
func ClassifyProgress(line string) (int, bool) {
	return ClassifyProgressWith(progressRules, line)
}

// ClassifyProgressWith applies an explicit ordered rule list.
func ClassifyProgressWith(rules []ProgressRule, line string) (int, bool) {
	for _, rule := range rules {
		if rule.Pattern != nil && rule.Pattern.MatchString(line) {
			return rule.Percent, true
		}
	}
	return 0, false
}
