package grading

import (
	"encoding/json"
	"strconv"
)

// KeyKind tags the payload variant carried by a Key.
type KeyKind int

const (
	KindNone KeyKind = iota
	KindText
	KindSet
	KindNumber
	KindPairs
)

// Key is the canonical correct-answer payload as a tagged union. The
// variant in use is decided by the question type, not by sniffing the
// stored value's shape.
type Key struct {
	Kind   KeyKind
	Text   string
	Set    []string
	Number float64
	Pairs  map[string]string
}

// ParseKey decodes a stored answer key for the given question type.
// Malformed or absent keys yield KindNone, which every strategy scores
// as zero; parsing never fails hard.
func ParseKey(qtype string, raw json.RawMessage) Key {
	if len(raw) == 0 {
		return Key{}
	}
	switch qtype {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer,
		TypeFillInTheBlank, TypeFormula:
		if s, ok := decodeText(raw); ok {
			return Key{Kind: KindText, Text: s}
		}
	case TypeMultiSelect:
		var set []string
		if err := json.Unmarshal(raw, &set); err == nil {
			return Key{Kind: KindSet, Set: set}
		}
	case TypeNumeric:
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return Key{Kind: KindNumber, Number: n}
		}
		// numeric keys are sometimes authored as strings
		if s, ok := decodeText(raw); ok {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				return Key{Kind: KindNumber, Number: v}
			}
		}
	case TypeMatching:
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err == nil {
			return Key{Kind: KindPairs, Pairs: m}
		}
	}
	return Key{}
}

// decodeText accepts a JSON string, number or boolean and renders it as
// text. Choice keys are usually strings but true_false keys show up as
// bare booleans in older banks.
func decodeText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b), true
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'g', -1, 64), true
	}
	return "", false
}

// lookupRule resolves a custom partial-credit rule for a fraction. Keys
// are matched first on the two-decimal form ("0.50"), then on the short
// form ("0.5"). No matching rule means no credit.
func lookupRule(rules map[string]float64, fraction float64) float64 {
	if v, ok := rules[strconv.FormatFloat(fraction, 'f', 2, 64)]; ok {
		return v
	}
	if v, ok := rules[strconv.FormatFloat(fraction, 'g', -1, 64)]; ok {
		return v
	}
	return 0
}
