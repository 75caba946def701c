// Package types provides type definitions for structured data used throughout the resume-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResumeRecord is the canonical resume entity exchanged with the data store and the tailoring model.
// Decoding is tolerant: a section with an unexpected shape decodes as empty instead of failing the record.
type ResumeRecord struct {
	PersonalInfo PersonalInfo `json:"personal_info"`
	Education    []Education  `json:"education"`
	Experience   []Experience `json:"experience"`
	Skills       SkillSet     `json:"skills"`
	Projects     []Project    `json:"projects"`
	Achievements TextList     `json:"achievements"`
}

// PersonalInfo holds the header fields of a resume
type PersonalInfo struct {
	FullName Text `json:"fullName,omitempty"`
	Email    Text `json:"email,omitempty"`
	Phone    Text `json:"phone,omitempty"`
	Location Text `json:"location,omitempty"`
	LinkedIn Text `json:"linkedin,omitempty"`
	GitHub   Text `json:"github,omitempty"`
	Website  Text `json:"website,omitempty"`
	Summary  Text `json:"summary,omitempty"`
}

// Education is a single education entry
type Education struct {
	Institution    Text `json:"institution,omitempty"`
	Location       Text `json:"location,omitempty"`
	Degree         Text `json:"degree,omitempty"`
	Field          Text `json:"field,omitempty"`
	GraduationDate Text `json:"graduationDate,omitempty"`
	Date           Text `json:"date,omitempty"`
	GPA            Text `json:"gpa,omitempty"`
}

// When returns the graduation date, falling back to the legacy date field
func (e Education) When() string {
	if e.GraduationDate != "" {
		return string(e.GraduationDate)
	}
	return string(e.Date)
}

// Experience is a single work experience entry
type Experience struct {
	Company     Text     `json:"company,omitempty"`
	Position    Text     `json:"position,omitempty"`
	Location    Text     `json:"location,omitempty"`
	StartDate   Text     `json:"startDate,omitempty"`
	EndDate     Text     `json:"endDate,omitempty"`
	Description TextList `json:"description"`
}

// Project is a single project entry
type Project struct {
	Title  Text     `json:"title,omitempty"`
	Tech   Text     `json:"tech,omitempty"`
	Date   Text     `json:"date,omitempty"`
	Points TextList `json:"points"`
}

// recordWire holds each section undecoded so one malformed section cannot poison the others
type recordWire struct {
	PersonalInfo    json.RawMessage `json:"personal_info"`
	PersonalInfoAlt json.RawMessage `json:"personalInfo"`
	Education       json.RawMessage `json:"education"`
	Experience      json.RawMessage `json:"experience"`
	Skills          json.RawMessage `json:"skills"`
	Projects        json.RawMessage `json:"projects"`
	Achievements    json.RawMessage `json:"achievements"`
}

// UnmarshalJSON decodes a resume record. It only fails when data is not a JSON object.
func (r *ResumeRecord) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("resume record must be a JSON object")
	}

	var w recordWire
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return fmt.Errorf("failed to decode resume record: %w", err)
	}

	personal := w.PersonalInfo
	if isAbsent(personal) {
		personal = w.PersonalInfoAlt
	}

	*r = *RecordFromSections(personal, w.Education, w.Experience, w.Skills, w.Projects, w.Achievements)
	return nil
}

// RecordFromSections builds a record from per-section JSON documents, as stored in separate columns.
// Any section may be nil, null or malformed; such sections come back empty.
func RecordFromSections(personal, education, experience, skills, projects, achievements []byte) *ResumeRecord {
	record := &ResumeRecord{}

	if !isAbsent(personal) {
		if err := json.Unmarshal(personal, &record.PersonalInfo); err != nil {
			record.PersonalInfo = PersonalInfo{}
		}
	}
	record.Education = decodeEntries[Education](education)
	record.Experience = decodeEntries[Experience](experience)
	record.Projects = decodeEntries[Project](projects)
	if !isAbsent(skills) {
		_ = record.Skills.UnmarshalJSON(skills)
	}
	if !isAbsent(achievements) {
		_ = record.Achievements.UnmarshalJSON(achievements)
	}

	return record
}

// decodeEntries decodes a JSON array element by element, skipping elements that are not objects
func decodeEntries[T any](data []byte) []T {
	if isAbsent(data) {
		return nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil
	}

	entries := make([]T, 0, len(raws))
	for _, raw := range raws {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var entry T
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func isAbsent(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
