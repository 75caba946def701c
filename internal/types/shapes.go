package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Form tags which JSON shape a polymorphic resume field arrived in
type Form int

// Form values for TextList and SkillSet
const (
	// FormAbsent means the field was missing or null
	FormAbsent Form = iota
	// FormString is a single string (comma or newline separated, depending on the field)
	FormString
	// FormSequence is a flat array of strings
	FormSequence
	// FormGroups is an array of {category, items} objects
	FormGroups
	// FormKeyed is an object mapping category name to items
	FormKeyed
	// FormUnknown is any other shape; it normalizes to nothing
	FormUnknown
)

// String returns the form name
func (f Form) String() string {
	switch f {
	case FormAbsent:
		return "absent"
	case FormString:
		return "string"
	case FormSequence:
		return "sequence"
	case FormGroups:
		return "groups"
	case FormKeyed:
		return "keyed"
	default:
		return "unknown"
	}
}

// Text is a leaf string that also accepts numbers and booleans, coerced to their literal form.
// Objects, arrays and null decode as the empty string.
type Text string

// UnmarshalJSON implements json.Unmarshaler and never fails
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(scalarString(data))
	return nil
}

// TextList is a bullet source: either one newline-separated string or a sequence of strings
type TextList struct {
	Form  Form
	Text  string
	Items []string
}

// TextListOf builds a sequence-form list
func TextListOf(items ...string) TextList {
	return TextList{Form: FormSequence, Items: items}
}

// TextListFromString builds a string-form list
func TextListFromString(text string) TextList {
	return TextList{Form: FormString, Text: text}
}

// UnmarshalJSON implements json.Unmarshaler and never fails
func (l *TextList) UnmarshalJSON(data []byte) error {
	*l = decodeTextList(data)
	return nil
}

// MarshalJSON writes the list back in the shape it was decoded from
func (l TextList) MarshalJSON() ([]byte, error) {
	switch l.Form {
	case FormString:
		return json.Marshal(l.Text)
	case FormSequence:
		if l.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(l.Items)
	default:
		return []byte("null"), nil
	}
}

// SkillCategory is one labeled group of skills; Items may itself be a comma string or a sequence
type SkillCategory struct {
	Category Text     `json:"category"`
	Items    TextList `json:"items"`
}

type skillCategoryWire struct {
	Category Text     `json:"category"`
	Name     Text     `json:"name"`
	Items    TextList `json:"items"`
	Skills   TextList `json:"skills"`
}

// SkillSet is the skills section in any of its accepted shapes
type SkillSet struct {
	Form       Form
	Text       string
	Items      []string
	Categories []SkillCategory
}

// SkillsFromString builds a comma-string skill set
func SkillsFromString(text string) SkillSet {
	return SkillSet{Form: FormString, Text: text}
}

// SkillsFromList builds a flat-sequence skill set
func SkillsFromList(items ...string) SkillSet {
	return SkillSet{Form: FormSequence, Items: items}
}

// SkillsFromCategories builds a keyed skill set, preserving category order
func SkillsFromCategories(categories ...SkillCategory) SkillSet {
	return SkillSet{Form: FormKeyed, Categories: categories}
}

// UnmarshalJSON implements json.Unmarshaler and never fails
func (s *SkillSet) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*s = SkillSet{}
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case 'n':
		s.Form = FormAbsent
	case '[':
		s.decodeArray(trimmed)
	case '{':
		categories, err := decodeOrderedCategories(trimmed)
		if err != nil {
			s.Form = FormUnknown
			return nil
		}
		s.Form = FormKeyed
		s.Categories = categories
	default:
		s.Form = FormString
		s.Text = scalarString(trimmed)
	}
	return nil
}

// decodeArray picks between a flat sequence and a category sequence based on the first non-null element
func (s *SkillSet) decodeArray(data []byte) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		s.Form = FormUnknown
		return
	}

	grouped := false
	for _, raw := range raws {
		raw = bytes.TrimSpace(raw)
		if isAbsent(raw) {
			continue
		}
		grouped = raw[0] == '{'
		break
	}

	if !grouped {
		s.Form = FormSequence
		s.Items = scalarItems(raws)
		return
	}

	s.Form = FormGroups
	for _, raw := range raws {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var w skillCategoryWire
		if err := json.Unmarshal(raw, &w); err != nil {
			continue
		}
		category := SkillCategory{Category: w.Category, Items: w.Items}
		if category.Category == "" {
			category.Category = w.Name
		}
		if category.Items.Form == FormAbsent {
			category.Items = w.Skills
		}
		s.Categories = append(s.Categories, category)
	}
}

// MarshalJSON writes the skill set back in the shape it was decoded from.
// Keyed sets are written key by key so category order survives the round trip.
func (s SkillSet) MarshalJSON() ([]byte, error) {
	switch s.Form {
	case FormString:
		return json.Marshal(s.Text)
	case FormSequence:
		if s.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.Items)
	case FormGroups:
		if s.Categories == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.Categories)
	case FormKeyed:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, category := range s.Categories {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(string(category.Category))
			if err != nil {
				return nil, err
			}
			value, err := json.Marshal(category.Items)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(value)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return []byte("null"), nil
	}
}

func decodeTextList(data []byte) TextList {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return TextList{}
	}

	switch trimmed[0] {
	case 'n':
		return TextList{Form: FormAbsent}
	case '{':
		return TextList{Form: FormUnknown}
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return TextList{Form: FormUnknown}
		}
		return TextList{Form: FormSequence, Items: scalarItems(raws)}
	default:
		return TextList{Form: FormString, Text: scalarString(trimmed)}
	}
}

// decodeOrderedCategories reads a JSON object key by key, in document order
func decodeOrderedCategories(data []byte) ([]SkillCategory, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var categories []SkillCategory
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		categories = append(categories, SkillCategory{
			Category: Text(key),
			Items:    decodeTextList(raw),
		})
	}

	return categories, nil
}

// scalarItems keeps string, number and boolean elements; objects, arrays and nulls are skipped
func scalarItems(raws []json.RawMessage) []string {
	items := make([]string, 0, len(raws))
	for _, raw := range raws {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		switch raw[0] {
		case '{', '[', 'n':
			continue
		}
		items = append(items, scalarString(raw))
	}
	return items
}

// scalarString coerces a JSON scalar to its string form
func scalarString(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ""
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		return string(trimmed)
	}
}
