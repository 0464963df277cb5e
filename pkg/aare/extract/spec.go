// Package extract implements the Extraction Engine: a declarative,
// pattern- and keyword-driven evaluator that turns raw text into a
// typed value environment, per the extractor kinds catalogued below.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EnumChoice is one label and the keywords that select it.
type EnumChoice struct {
	Label    string
	Keywords []string
}

// EnumChoices preserves the declaration order of an enum extractor's
// "choices" object, since the extractor contract picks "the first label
// whose keyword list matches" — an ordering a plain Go map cannot
// preserve across an unmarshal.
type EnumChoices []EnumChoice

func (c *EnumChoices) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("choices must be a JSON object")
	}
	var out EnumChoices
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		label, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("choices: expected string label")
		}
		var keywords []string
		if err := dec.Decode(&keywords); err != nil {
			return err
		}
		out = append(out, EnumChoice{Label: label, Keywords: keywords})
	}
	*c = out
	return nil
}

func (c EnumChoices) MarshalJSON() ([]byte, error) {
	buf := bytes.NewBufferString("{")
	for i, choice := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(choice.Label)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(choice.Keywords)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Kind tags which extractor family a Spec holds — a sum type with one
// case per row of the extractor contract table, so the engine
// dispatches on the tag instead of duck-typing a generic options map.
type Kind string

const (
	KindInt        Kind = "int"
	KindFloat      Kind = "float"
	KindMoney      Kind = "money"
	KindPercentage Kind = "percentage"
	KindBoolean    Kind = "boolean"
	KindString     Kind = "string"
	KindDate       Kind = "date"
	KindDatetime   Kind = "datetime"
	KindList       Kind = "list"
	KindEnum       Kind = "enum"
	KindComputed   Kind = "computed"
)

func (k Kind) valid() bool {
	switch k {
	case KindInt, KindFloat, KindMoney, KindPercentage, KindBoolean, KindString,
		KindDate, KindDatetime, KindList, KindEnum, KindComputed:
		return true
	default:
		return false
	}
}

// Spec is one extractor's declaration, as authored in an ontology
// document's "extractors" map. JSON field names follow the shape the
// loader reads off disk; Kind selects which of the other fields apply.
type Spec struct {
	Type Kind `json:"type"`

	// int, float, money, percentage, string, date, datetime, list
	Pattern string `json:"pattern,omitempty"`

	// boolean, date (optional keyword fallback)
	Keywords []string `json:"keywords,omitempty"`

	// boolean
	NegationWords []string `json:"negation_words,omitempty"`
	CheckNegation bool     `json:"check_negation,omitempty"`

	// list: the sort each captured group is coerced into
	ItemType string `json:"item_type,omitempty"`

	// enum: label -> keywords that select it, tried in declaration order
	Choices EnumChoices `json:"choices,omitempty"`
	Default string      `json:"default,omitempty"`

	// computed
	Formula any `json:"formula,omitempty"`
}

// Validate rejects an unknown extractor kind or a missing required
// field at ontology-load time rather than at first extraction, per the
// "explicit capability set" design note.
func (s *Spec) Validate(name string) error {
	if !s.Type.valid() {
		return fmt.Errorf("extractor %q: unknown kind %q", name, s.Type)
	}
	switch s.Type {
	case KindInt, KindFloat, KindMoney, KindPercentage, KindString, KindDatetime:
		if s.Pattern == "" {
			return fmt.Errorf("extractor %q: %s requires a pattern", name, s.Type)
		}
	case KindList:
		if s.Pattern == "" {
			return fmt.Errorf("extractor %q: list requires a pattern", name)
		}
		if s.ItemType == "" {
			return fmt.Errorf("extractor %q: list requires item_type", name)
		}
	case KindDate:
		if s.Pattern == "" && len(s.Keywords) == 0 {
			return fmt.Errorf("extractor %q: date requires a pattern and/or keywords", name)
		}
	case KindEnum:
		if len(s.Choices) == 0 {
			return fmt.Errorf("extractor %q: enum requires at least one choice", name)
		}
	case KindComputed:
		if s.Formula == nil {
			return fmt.Errorf("extractor %q: computed requires a formula", name)
		}
	}
	return nil
}
