package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/seonlab/studyplan-api/internal/models"
)

// RiskIndexRepository reads per-subject risk scores for risk-based ordering.
type RiskIndexRepository struct {
	db *sqlx.DB
}

// NewRiskIndexRepository creates a new instance of RiskIndexRepository.
func NewRiskIndexRepository(db *sqlx.DB) *RiskIndexRepository {
	return &RiskIndexRepository{db: db}
}

// MapByStudent returns the student's risk scores keyed by lowercased subject.
func (r *RiskIndexRepository) MapByStudent(ctx context.Context, studentID string) (map[string]models.SubjectRiskIndex, error) {
	const query = `SELECT subject, risk_score FROM subject_risk_indices WHERE student_id = $1`
	var rows []models.SubjectRiskIndex
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list risk indices: %w", err)
	}
	index := make(map[string]models.SubjectRiskIndex, len(rows))
	for _, row := range rows {
		index[strings.ToLower(row.Subject)] = row
	}
	return index, nil
}
