package extract

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/aare-ai/aarecore/pkg/aare/internalerr"
	"github.com/aare-ai/aarecore/pkg/aare/value"
)

// Extract runs every non-computed extractor over text, then resolves
// computed extractors in one additional pass (or to fixed point if they
// reference each other), per §4.1. It never fails the request: an
// extractor that cannot locate its value contributes the kind's default
// and a warning instead of an error.
func Extract(text string, extractors map[string]*Spec) (map[string]value.Value, []internalerr.ExtractionWarning) {
	env := make(map[string]value.Value, len(extractors))
	var warnings []internalerr.ExtractionWarning

	order := make([]string, 0, len(extractors))
	computed := make([]string, 0)
	for name, spec := range extractors {
		if spec.Type == KindComputed {
			computed = append(computed, name)
			continue
		}
		order = append(order, name)
	}

	for _, name := range order {
		v, warn := extractOne(text, extractors[name])
		env[name] = v
		if warn != "" {
			warnings = append(warnings, internalerr.ExtractionWarning{Variable: name, Reason: warn})
		}
	}

	resolved := resolveComputed(env, extractors, computed)
	for name, v := range resolved {
		env[name] = v
	}
	for _, name := range computed {
		if _, ok := env[name]; !ok {
			env[name] = value.Null()
			warnings = append(warnings, internalerr.ExtractionWarning{
				Variable: name,
				Reason:   "computed extractor did not resolve (missing dependency or cycle)",
			})
		}
	}

	return env, warnings
}

// extractOne dispatches a single non-computed extractor kind to its
// regex/keyword matcher, returning the kind's documented default (and a
// warning reason) on a miss.
func extractOne(text string, spec *Spec) (value.Value, string) {
	switch spec.Type {
	case KindInt:
		return extractInt(text, spec)
	case KindFloat:
		return extractFloat(text, spec)
	case KindMoney:
		return extractMoney(text, spec)
	case KindPercentage:
		return extractPercentage(text, spec)
	case KindBoolean:
		return extractBoolean(text, spec)
	case KindString:
		return extractString(text, spec)
	case KindDate:
		return extractDate(text, spec)
	case KindDatetime:
		return extractDatetime(text, spec)
	case KindList:
		return extractList(text, spec)
	case KindEnum:
		return extractEnum(text, spec)
	default:
		return value.Null(), "unsupported extractor kind"
	}
}

var reCache sync.Map // map[string]*regexp.Regexp

func compileCI(pattern string) (*regexp.Regexp, error) {
	if cached, ok := reCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}
	reCache.Store(pattern, re)
	return re, nil
}

func extractInt(text string, spec *Spec) (value.Value, string) {
	re, err := compileCI(spec.Pattern)
	if err != nil {
		return value.Int(0), "invalid pattern: " + err.Error()
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return value.Int(0), "no match"
	}
	cleaned := strings.ReplaceAll(m[1], ",", "")
	n, warn := parseSaturatingInt(cleaned)
	if warn != "" {
		return value.Int(n), warn
	}
	return value.Int(n), ""
}

// parseSaturatingInt parses a base-10 integer, saturating at
// math.MaxInt64/math.MinInt64 on overflow rather than falling back to
// the extractor's typed default, per spec.md §9's "this spec requires
// saturating at the implementation's maximum representable integer and
// adding a warning" resolution of the numeric-overflow open question.
func parseSaturatingInt(cleaned string) (int64, string) {
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err == nil {
		return n, ""
	}
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(cleaned, "-") {
			return math.MinInt64, "matched integer overflowed int64, saturated: " + cleaned
		}
		return math.MaxInt64, "matched integer overflowed int64, saturated: " + cleaned
	}
	return 0, "matched text not a valid integer: " + cleaned
}

func extractFloat(text string, spec *Spec) (value.Value, string) {
	re, err := compileCI(spec.Pattern)
	if err != nil {
		return value.Real(0), "invalid pattern: " + err.Error()
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return value.Real(0), "no match"
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return value.Real(0), "matched text not a valid number: " + m[1]
	}
	return value.Real(f), ""
}

func extractPercentage(text string, spec *Spec) (value.Value, string) {
	re, err := compileCI(spec.Pattern)
	if err != nil {
		return value.Real(0), "invalid pattern: " + err.Error()
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return value.Real(0), "no match"
	}
	trimmed := strings.TrimSuffix(strings.TrimSpace(m[1]), "%")
	f, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64)
	if err != nil {
		return value.Real(0), "matched text not a valid percentage: " + m[1]
	}
	return value.Real(f), ""
}

// moneySuffixPattern is a fallback scan for the suffix character
// immediately trailing the amount's own capture group, used only when
// the ontology's own pattern doesn't already capture the suffix as its
// second submatch group.
var moneySuffixPattern = regexp.MustCompile(`(?i)^([kmb])?`)

func extractMoney(text string, spec *Spec) (value.Value, string) {
	re, err := compileCI(spec.Pattern)
	if err != nil {
		return value.Real(0), "invalid pattern: " + err.Error()
	}
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil || len(loc) < 4 || loc[2] < 0 {
		return value.Real(0), "no match"
	}
	raw := text[loc[2]:loc[3]]
	var suffix byte
	if len(loc) >= 6 && loc[4] >= 0 && loc[5] > loc[4] {
		// the pattern's own second capture group already captured the
		// suffix character as part of the whole match (e.g.
		// `\$([\d,.]+)\s*([kmbKMB])?`), so it's inside loc[1], not after
		// it — read it directly instead of rescanning past the match.
		suffix = text[loc[4]]
	} else if m := moneySuffixPattern.FindStringSubmatch(text[loc[3]:]); len(m) == 2 && m[1] != "" {
		suffix = m[1][0]
	}
	amount, ok := parseMoney(raw, suffix)
	if !ok {
		return value.Real(0), "matched text not a valid amount: " + raw
	}
	if amount > math.MaxInt64 {
		return value.Real(math.MaxInt64), "matched amount overflowed int64, saturated: " + raw
	}
	if amount < math.MinInt64 {
		return value.Real(math.MinInt64), "matched amount overflowed int64, saturated: " + raw
	}
	return value.Real(amount), ""
}

func extractBoolean(text string, spec *Spec) (value.Value, string) {
	lower := strings.ToLower(text)
	matched := false
	for _, kw := range spec.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = true
			break
		}
	}
	if !matched {
		return value.Bool(false), ""
	}
	if spec.CheckNegation {
		for _, neg := range spec.NegationWords {
			if strings.Contains(lower, strings.ToLower(neg)) {
				return value.Bool(false), ""
			}
		}
	}
	return value.Bool(true), ""
}

func extractString(text string, spec *Spec) (value.Value, string) {
	re, err := compileCI(spec.Pattern)
	if err != nil {
		return value.String(""), "invalid pattern: " + err.Error()
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return value.String(""), "no match"
	}
	return value.String(m[1]), ""
}

func extractDate(text string, spec *Spec) (value.Value, string) {
	candidate, warn := dateCandidateText(text, spec)
	if candidate == "" {
		return value.Null(), warn
	}
	t, ok := parseDate(candidate)
	if !ok {
		return value.Null(), "matched text not a recognized date: " + candidate
	}
	return value.Date(t), ""
}

func extractDatetime(text string, spec *Spec) (value.Value, string) {
	re, err := compileCI(spec.Pattern)
	if err != nil {
		return value.Null(), "invalid pattern: " + err.Error()
	}
	m := re.FindString(text)
	if m == "" {
		return value.Null(), "no match"
	}
	t, ok := parseDatetime(m)
	if !ok {
		return value.Null(), "matched text not a recognized datetime: " + m
	}
	return value.Date(t), ""
}

// dateCandidateText resolves the date extractor's two input modes: an
// explicit pattern, or a keyword-anchored scan for a nearby date shape.
func dateCandidateText(text string, spec *Spec) (string, string) {
	if spec.Pattern != "" {
		re, err := compileCI(spec.Pattern)
		if err != nil {
			return "", "invalid pattern: " + err.Error()
		}
		if m := re.FindString(text); m != "" {
			return m, ""
		}
		return "", "no match"
	}
	lower := strings.ToLower(text)
	for _, kw := range spec.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			if m := dateCandidatePattern.FindString(text); m != "" {
				return m, ""
			}
		}
	}
	return "", "no match"
}

func extractList(text string, spec *Spec) (value.Value, string) {
	re, err := compileCI(spec.Pattern)
	if err != nil {
		return value.List(nil), "invalid pattern: " + err.Error()
	}
	matches := re.FindAllStringSubmatch(text, -1)
	items := make([]value.Value, 0, len(matches))
	for _, m := range matches {
		if len(m) < 2 {
			continue
		}
		items = append(items, coerceItem(m[1], spec.ItemType))
	}
	return value.List(items), ""
}

func coerceItem(raw string, itemType string) value.Value {
	switch itemType {
	case "int":
		n, _ := parseSaturatingInt(strings.ReplaceAll(raw, ",", ""))
		return value.Int(n)
	case "float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return value.Real(0)
		}
		return value.Real(f)
	default:
		return value.String(raw)
	}
}

func extractEnum(text string, spec *Spec) (value.Value, string) {
	lower := strings.ToLower(text)
	for _, choice := range spec.Choices {
		for _, kw := range choice.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return value.Enum(choice.Label), ""
			}
		}
	}
	if spec.Default != "" {
		return value.Enum(spec.Default), ""
	}
	return value.Null(), "no choice matched and no default"
}
