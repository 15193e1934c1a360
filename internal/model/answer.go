package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// AnswerKind tells which shape an Answer holds.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerText
	AnswerList
	AnswerPairs
	AnswerJustified
	// AnswerOther is any JSON value that fits none of the shapes above.
	// It is kept verbatim so it can be stored and displayed, but it never
	// scores.
	AnswerOther
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerNone:
		return "none"
	case AnswerText:
		return "text"
	case AnswerList:
		return "list"
	case AnswerPairs:
		return "pairs"
	case AnswerJustified:
		return "justified"
	case AnswerOther:
		return "other"
	default:
		return fmt.Sprintf("AnswerKind(%d)", int(k))
	}
}

// Justification is a true/false pick together with the examinee's reasoning.
type Justification struct {
	Selection     string `json:"selection"`
	Justification string `json:"justification"`
}

// Answer is a submitted (or expected) answer of one of several shapes.
// The zero value is an absent answer.
type Answer struct {
	kind  AnswerKind
	text  string
	list  []string
	pairs map[string]string
	just  Justification
	raw   json.RawMessage
}

// NoAnswer returns an absent answer.
func NoAnswer() Answer { return Answer{} }

// TextAnswer returns a single-string answer.
func TextAnswer(s string) Answer { return Answer{kind: AnswerText, text: s} }

// ListAnswer returns an ordered sequence answer.
func ListAnswer(items ...string) Answer {
	return Answer{kind: AnswerList, list: append([]string{}, items...)}
}

// PairsAnswer returns a prompt to option mapping answer.
func PairsAnswer(pairs map[string]string) Answer {
	m := maps.Clone(pairs)
	if m == nil {
		m = map[string]string{}
	}
	return Answer{kind: AnswerPairs, pairs: m}
}

// JustifiedAnswer returns a selection with a free-text justification.
func JustifiedAnswer(selection, justification string) Answer {
	return Answer{kind: AnswerJustified, just: Justification{Selection: selection, Justification: justification}}
}

// ParseAnswer decodes any JSON value into an Answer. It only fails on
// syntactically invalid JSON.
func ParseAnswer(data []byte) (Answer, error) {
	var a Answer
	if !json.Valid(data) {
		return a, fmt.Errorf("parse answer: invalid JSON")
	}
	err := a.UnmarshalJSON(data)
	return a, err
}

// Kind returns the shape of the answer.
func (a Answer) Kind() AnswerKind { return a.kind }

// IsZero reports whether the answer is absent.
func (a Answer) IsZero() bool { return a.kind == AnswerNone }

// AsText returns the string value if the answer is a single string.
func (a Answer) AsText() (string, bool) {
	return a.text, a.kind == AnswerText
}

// AsList returns a copy of the sequence if the answer is a list of strings.
func (a Answer) AsList() ([]string, bool) {
	if a.kind != AnswerList {
		return nil, false
	}
	return slices.Clone(a.list), true
}

// AsPairs returns a copy of the mapping if the answer is a prompt to option
// mapping. A decoded justified answer whose values are all strings also
// narrows to pairs, so a matching prompt named "selection" stays answerable.
func (a Answer) AsPairs() (map[string]string, bool) {
	switch {
	case a.kind == AnswerPairs:
	case a.kind == AnswerJustified && a.pairs != nil:
	default:
		return nil, false
	}
	return maps.Clone(a.pairs), true
}

// AsJustified returns the selection and justification if the answer has that shape.
func (a Answer) AsJustified() (Justification, bool) {
	return a.just, a.kind == AnswerJustified
}

// Raw returns the verbatim JSON of an AnswerOther value.
func (a Answer) Raw() json.RawMessage {
	if a.kind != AnswerOther {
		return nil
	}
	return slices.Clone(a.raw)
}

// Clone returns a deep copy.
func (a Answer) Clone() Answer {
	out := a
	out.list = slices.Clone(a.list)
	out.pairs = maps.Clone(a.pairs)
	out.raw = slices.Clone(a.raw)
	return out
}

// MarshalJSON encodes the answer in the same shape it was decoded from.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerText:
		return json.Marshal(a.text)
	case AnswerList:
		if a.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.list)
	case AnswerPairs:
		if a.pairs == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(a.pairs)
	case AnswerJustified:
		if a.pairs != nil {
			return json.Marshal(a.pairs)
		}
		return json.Marshal(a.just)
	case AnswerOther:
		return slices.Clone(a.raw), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any JSON value. Values that match none of the known
// shapes become AnswerOther instead of an error: examinee input is untrusted
// and must never break decoding of a whole submission.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := decodeString(item)
			if !ok {
				*a = otherAnswer(data)
				return nil
			}
			list = append(list, s)
		}
		*a = Answer{kind: AnswerList, list: list}
		return nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		pairs := decodePairs(fields)
		if j, ok := decodeJustification(fields); ok {
			*a = Answer{kind: AnswerJustified, just: j, pairs: pairs}
			return nil
		}
		if pairs == nil {
			*a = otherAnswer(data)
			return nil
		}
		*a = Answer{kind: AnswerPairs, pairs: pairs}
		return nil
	default:
		*a = otherAnswer(data)
		return nil
	}
}

func otherAnswer(data []byte) Answer {
	return Answer{kind: AnswerOther, raw: slices.Clone(data)}
}

// decodePairs returns nil unless every value is a string.
func decodePairs(fields map[string]json.RawMessage) map[string]string {
	pairs := make(map[string]string, len(fields))
	for k, v := range fields {
		s, ok := decodeString(v)
		if !ok {
			return nil
		}
		pairs[k] = s
	}
	return pairs
}

func decodeString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeJustification recognizes {"selection": "...", "justification": "..."}.
// The justification may be missing or null; no other keys are allowed.
func decodeJustification(fields map[string]json.RawMessage) (Justification, bool) {
	rawSel, ok := fields["selection"]
	if !ok {
		return Justification{}, false
	}
	sel, ok := decodeString(rawSel)
	if !ok {
		return Justification{}, false
	}
	j := Justification{Selection: sel}
	for k, v := range fields {
		switch k {
		case "selection":
		case "justification":
			if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				continue
			}
			s, ok := decodeString(v)
			if !ok {
				return Justification{}, false
			}
			j.Justification = s
		default:
			return Justification{}, false
		}
	}
	return j, true
}
