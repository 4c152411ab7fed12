package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seonlab/studyplan-api/internal/models"
)

// ContentRepository resolves student-owned content and copies master
// content on demand.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new instance of ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// FindStudentContent loads a content row already owned by the student,
// either by its own id or by the master row it was copied from.
func (r *ContentRepository) FindStudentContent(ctx context.Context, studentID, contentID string) (*models.StudentContent, error) {
	const query = `SELECT id, student_id, master_content_id, content_type, title, subject, total_amount
FROM student_contents
WHERE student_id = $1 AND (id = $2 OR master_content_id = $2)
LIMIT 1`
	var content models.StudentContent
	if err := r.db.GetContext(ctx, &content, query, studentID, contentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student content: %w", err)
	}
	return &content, nil
}

// FindMasterContent loads a master catalogue row.
func (r *ContentRepository) FindMasterContent(ctx context.Context, id string) (*models.StudentContent, error) {
	const query = `SELECT id, content_type, title, subject, total_amount
FROM master_contents WHERE id = $1 LIMIT 1`
	var content models.StudentContent
	if err := r.db.GetContext(ctx, &content, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find master content: %w", err)
	}
	return &content, nil
}

// CopyMasterContent clones a master row into the student's own contents and
// returns the new row.
func (r *ContentRepository) CopyMasterContent(ctx context.Context, studentID string, master *models.StudentContent) (*models.StudentContent, error) {
	if master == nil {
		return nil, fmt.Errorf("master content is nil")
	}
	copied := models.StudentContent{
		ID:              uuid.NewString(),
		StudentID:       studentID,
		MasterContentID: &master.ID,
		Type:            master.Type,
		Title:           master.Title,
		Subject:         master.Subject,
		TotalAmount:     master.TotalAmount,
	}
	const query = `
INSERT INTO student_contents (id, student_id, master_content_id, content_type, title, subject, total_amount, created_at)
VALUES (:id, :student_id, :master_content_id, :content_type, :title, :subject, :total_amount, :created_at)`
	arg := struct {
		models.StudentContent
		CreatedAt time.Time `db:"created_at"`
	}{StudentContent: copied, CreatedAt: time.Now().UTC()}
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, arg); err != nil {
		return nil, fmt.Errorf("copy master content: %w", err)
	}
	return &copied, nil
}
