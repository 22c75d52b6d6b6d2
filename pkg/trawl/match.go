package trawl

import (
	"regexp"
	"strings"
)

// Match applies a search pattern to captured command output. The pattern
// is compiled here rather than at spec load time so that a bad pattern
// fails only the device running it.
//
// HitCount counts all non-overlapping matches. For a pattern without
// capture groups, FirstMatch is the full text of the first match; with
// capture groups it is the first match's group texts joined with "| ".
func Match(output, pattern string) (*MatchOutcome, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}

	matches := re.FindAllStringSubmatch(output, -1)
	outcome := &MatchOutcome{Pattern: pattern, HitCount: len(matches)}
	if len(matches) > 0 {
		outcome.FirstMatch = firstMatchText(re, matches[0])
	}
	return outcome, nil
}

func firstMatchText(re *regexp.Regexp, match []string) string {
	if re.NumSubexp() == 0 {
		return match[0]
	}
	return strings.Join(match[1:], "| ")
}
