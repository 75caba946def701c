package db

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-builder/internal/types"
)

const resumeColumns = `id, user_id, title, personal_info, education, experience, skills, projects, achievements, latex, pdf_url, content_version, created_at, updated_at`

// ErrContentChanged is returned when a resume's content moved past the version a document was built from
var ErrContentChanged = errors.New("resume content changed")

// CreateResume inserts a resume and returns the stored row
func (db *DB) CreateResume(ctx context.Context, in *ResumeInput) (*Resume, error) {
	cols, err := encodeSections(in.Record)
	if err != nil {
		return nil, err
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, title, personal_info, education, experience, skills, projects, achievements)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+resumeColumns,
		in.UserID, in.Title, cols.PersonalInfo, cols.Education, cols.Experience, cols.Skills, cols.Projects, cols.Achievements,
	)
	resume, err := scanResume(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	return resume, nil
}

// GetResume returns a resume by ID, or nil if it does not exist
func (db *DB) GetResume(ctx context.Context, id uuid.UUID) (*Resume, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id)
	resume, err := scanResume(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return resume, nil
}

// buildListResumesQuery builds the filtered, paginated resume listing
func buildListResumesQuery(filter ResumeFilter) (string, []any, error) {
	limit := filter.Limit
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	builder := psql.Select(resumeColumns).
		From("resumes").
		OrderBy("updated_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	if filter.UserID != uuid.Nil {
		builder = builder.Where("user_id = ?", filter.UserID)
	}
	if filter.Search != "" {
		builder = builder.Where(sq.ILike{"title": "%" + filter.Search + "%"})
	}

	return builder.ToSql()
}

// ListResumes returns resumes matching filter, most recently updated first
func (db *DB) ListResumes(ctx context.Context, filter ResumeFilter) ([]Resume, error) {
	query, args, err := buildListResumesQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build list resumes query: %w", err)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []Resume
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, *resume)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resumes: %w", err)
	}
	return resumes, nil
}

// UpdateResumeContent replaces the title and sections of a resume.
// The stored LaTeX and PDF URL are cleared and the content version is bumped, so documents
// built from the previous content can no longer be recorded.
// It reports false when the resume does not exist.
func (db *DB) UpdateResumeContent(ctx context.Context, id uuid.UUID, title string, record *types.ResumeRecord) (bool, error) {
	cols, err := encodeSections(record)
	if err != nil {
		return false, err
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE resumes
		 SET title = $2, personal_info = $3, education = $4, experience = $5, skills = $6,
		     projects = $7, achievements = $8, latex = NULL, pdf_url = NULL,
		     content_version = content_version + 1, updated_at = NOW()
		 WHERE id = $1`,
		id, title, cols.PersonalInfo, cols.Education, cols.Experience, cols.Skills, cols.Projects, cols.Achievements,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update resume: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteResume deletes a resume and reports whether it existed
func (db *DB) DeleteResume(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete resume: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SaveLatex stores the rendered document built from the given content version.
// It returns ErrContentChanged when the content has been updated since.
func (db *DB) SaveLatex(ctx context.Context, id uuid.UUID, version int64, latex string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE resumes SET latex = $3, updated_at = NOW() WHERE id = $1 AND content_version = $2`,
		id, version, latex,
	)
	if err != nil {
		return fmt.Errorf("failed to save latex: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.versionMismatch(ctx, id, "failed to save latex")
	}
	return nil
}

// SetPDFURL records the URL of a PDF built from the given content version, only if none
// is recorded yet. It returns the URL now stored and whether this call stored it.
// A PDF built from outdated content is refused with ErrContentChanged.
func (db *DB) SetPDFURL(ctx context.Context, id uuid.UUID, version int64, url string) (string, bool, error) {
	var stored string
	err := db.pool.QueryRow(ctx,
		`UPDATE resumes SET pdf_url = $3
		 WHERE id = $1 AND content_version = $2 AND pdf_url IS NULL
		 RETURNING pdf_url`,
		id, version, url,
	).Scan(&stored)
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("failed to set pdf url: %w", err)
	}

	var existing *string
	var current int64
	err = db.pool.QueryRow(ctx, `SELECT pdf_url, content_version FROM resumes WHERE id = $1`, id).Scan(&existing, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, fmt.Errorf("failed to set pdf url: resume %s not found", id)
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read pdf url: %w", err)
	}
	if current != version {
		return "", false, ErrContentChanged
	}
	if existing == nil {
		return "", false, nil
	}
	return *existing, false, nil
}

// versionMismatch explains why a version-conditional update touched no row
func (db *DB) versionMismatch(ctx context.Context, id uuid.UUID, op string) error {
	var exists bool
	if err := db.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM resumes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: resume %s not found", op, id)
	}
	return ErrContentChanged
}

func scanResume(row pgx.Row) (*Resume, error) {
	var r Resume
	var cols sectionColumns
	err := row.Scan(
		&r.ID, &r.UserID, &r.Title,
		&cols.PersonalInfo, &cols.Education, &cols.Experience, &cols.Skills, &cols.Projects, &cols.Achievements,
		&r.Latex, &r.PDFURL, &r.ContentVersion, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Record = cols.record()
	return &r, nil
}
