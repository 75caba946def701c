package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const jobDescriptionColumns = `id, user_id, resume_id, title, company, location, description, source_url, created_at`

// CreateJobDescription inserts a job description
func (db *DB) CreateJobDescription(ctx context.Context, in *JobDescriptionInput) (*JobDescription, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO job_descriptions (user_id, resume_id, title, company, location, description, source_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+jobDescriptionColumns,
		in.UserID, in.ResumeID, in.Title, in.Company, in.Location, in.Description, in.SourceURL,
	)
	jd, err := scanJobDescription(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create job description: %w", err)
	}
	return jd, nil
}

// GetJobDescription returns a job description by ID, or nil if it does not exist
func (db *DB) GetJobDescription(ctx context.Context, id uuid.UUID) (*JobDescription, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+jobDescriptionColumns+` FROM job_descriptions WHERE id = $1`, id)
	jd, err := scanJobDescription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job description: %w", err)
	}
	return jd, nil
}

// ListJobDescriptions returns the job descriptions attached to a resume, newest first
func (db *DB) ListJobDescriptions(ctx context.Context, resumeID uuid.UUID) ([]JobDescription, error) {
	query, args, err := psql.Select(jobDescriptionColumns).
		From("job_descriptions").
		Where("resume_id = ?", resumeID).
		OrderBy("created_at DESC").
		Limit(DefaultListLimit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list job descriptions query: %w", err)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list job descriptions: %w", err)
	}
	defer rows.Close()

	var jds []JobDescription
	for rows.Next() {
		jd, err := scanJobDescription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job description: %w", err)
		}
		jds = append(jds, *jd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job descriptions: %w", err)
	}
	return jds, nil
}

func scanJobDescription(row pgx.Row) (*JobDescription, error) {
	var jd JobDescription
	err := row.Scan(&jd.ID, &jd.UserID, &jd.ResumeID, &jd.Title, &jd.Company, &jd.Location, &jd.Description, &jd.SourceURL, &jd.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &jd, nil
}
