package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/seonlab/studyplan-api/internal/models"
)

type contentReader interface {
	FindStudentContent(ctx context.Context, studentID, contentID string) (*models.StudentContent, error)
	FindMasterContent(ctx context.Context, id string) (*models.StudentContent, error)
	CopyMasterContent(ctx context.Context, studentID string, master *models.StudentContent) (*models.StudentContent, error)
}

// ContentResolutionService turns content references into placement-ready
// ContentInfo, copying master catalogue rows to student ownership when the
// student does not hold them yet.
type ContentResolutionService struct {
	contents contentReader
	logger   *zap.Logger
}

// NewContentResolutionService wires the resolver.
func NewContentResolutionService(contents contentReader, logger *zap.Logger) *ContentResolutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentResolutionService{contents: contents, logger: logger}
}

// Resolve processes every reference independently: a failing item becomes a
// ContentCopyFailure and never aborts resolution of the rest.
func (s *ContentResolutionService) Resolve(ctx context.Context, studentID string, refs []models.ContentRef) ([]models.ContentInfo, []models.ContentCopyFailure, error) {
	var (
		resolved []models.ContentInfo
		failures []models.ContentCopyFailure
	)
	for _, ref := range refs {
		content, err := s.resolveOne(ctx, studentID, ref)
		if err != nil {
			s.logger.Warn("content resolution failed",
				zap.String("student_id", studentID),
				zap.String("content_id", ref.ContentID),
				zap.Error(err))
			failures = append(failures, models.ContentCopyFailure{
				ContentID: ref.ContentID,
				Reason:    err.Error(),
			})
			continue
		}
		resolved = append(resolved, *content)
	}
	return resolved, failures, nil
}

func (s *ContentResolutionService) resolveOne(ctx context.Context, studentID string, ref models.ContentRef) (*models.ContentInfo, error) {
	owned, err := s.contents.FindStudentContent(ctx, studentID, ref.ContentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if owned == nil {
		master, err := s.contents.FindMasterContent(ctx, ref.ContentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("content not found")
			}
			return nil, err
		}
		owned, err = s.contents.CopyMasterContent(ctx, studentID, master)
		if err != nil {
			return nil, fmt.Errorf("copy master content: %w", err)
		}
	}
	if owned.TotalAmount <= 0 {
		return nil, fmt.Errorf("content has non-positive amount")
	}
	return &models.ContentInfo{
		ID:          owned.ID,
		Type:        owned.Type,
		Title:       owned.Title,
		Subject:     owned.Subject,
		TotalAmount: owned.TotalAmount,
	}, nil
}
