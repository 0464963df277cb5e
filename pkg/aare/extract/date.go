package extract

import (
	"regexp"
	"time"
)

// dateFormats is the fixed, ordered list of layouts the date and
// datetime extractors try, per the extractor contract table. The first
// layout that parses the matched text wins.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var datetimeFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 15:04:05",
	"01/02/2006 3:04 PM",
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDatetime(raw string) (time.Time, bool) {
	for _, layout := range datetimeFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return parseDate(raw)
}

// dateCandidatePattern is used when a date extractor declares only
// keywords with no explicit pattern: once any keyword occurs in the
// text, the first of the known date shapes anywhere in the text is
// taken, whether or not it is near the keyword.
var dateCandidatePattern = regexp.MustCompile(
	`(?i)\d{4}[-/]\d{2}[-/]\d{2}|\d{1,2}[-/]\d{1,2}[-/]\d{4}|[A-Za-z]+ \d{1,2},? \d{4}|\d{1,2} [A-Za-z]+ \d{4}`,
)
