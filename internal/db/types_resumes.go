package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/types"
)

// Resume is a resume row with its sections decoded.
// ContentVersion increases with every content update; documents derived from the
// row are only stored against the version they were built from.
type Resume struct {
	ID             uuid.UUID           `json:"id"`
	UserID         uuid.UUID           `json:"user_id"`
	Title          string              `json:"title"`
	Record         *types.ResumeRecord `json:"record"`
	Latex          *string             `json:"latex,omitempty"`
	PDFURL         *string             `json:"pdf_url,omitempty"`
	ContentVersion int64               `json:"content_version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// ResumeInput carries the writable fields of a resume
type ResumeInput struct {
	UserID uuid.UUID
	Title  string
	Record *types.ResumeRecord
}

// ResumeFilter narrows ListResumes. A zero Limit means DefaultListLimit.
type ResumeFilter struct {
	UserID uuid.UUID
	Search string
	Limit  int
	Offset int
}

// DefaultListLimit caps list queries when no limit is given
const DefaultListLimit = 50

// JobDescription is a job description row
type JobDescription struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ResumeID    *uuid.UUID `json:"resume_id,omitempty"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	Description string     `json:"description"`
	SourceURL   string     `json:"source_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// JobDescriptionInput carries the writable fields of a job description
type JobDescriptionInput struct {
	UserID      uuid.UUID
	ResumeID    *uuid.UUID
	Title       string
	Company     string
	Location    string
	Description string
	SourceURL   string
}

// sectionColumns holds the JSONB column values of a resume record
type sectionColumns struct {
	PersonalInfo []byte
	Education    []byte
	Experience   []byte
	Skills       []byte
	Projects     []byte
	Achievements []byte
}

// encodeSections splits a record into its JSONB columns, keeping each section's shape
func encodeSections(record *types.ResumeRecord) (sectionColumns, error) {
	if record == nil {
		record = &types.ResumeRecord{}
	}

	var cols sectionColumns
	var err error
	fields := []struct {
		dst *[]byte
		src any
	}{
		{&cols.PersonalInfo, record.PersonalInfo},
		{&cols.Education, record.Education},
		{&cols.Experience, record.Experience},
		{&cols.Skills, record.Skills},
		{&cols.Projects, record.Projects},
		{&cols.Achievements, record.Achievements},
	}
	for _, f := range fields {
		if *f.dst, err = json.Marshal(f.src); err != nil {
			return sectionColumns{}, fmt.Errorf("failed to marshal resume section: %w", err)
		}
	}
	return cols, nil
}

func (c sectionColumns) record() *types.ResumeRecord {
	return types.RecordFromSections(c.PersonalInfo, c.Education, c.Experience, c.Skills, c.Projects, c.Achievements)
}
