package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// ProposalScoreRepository stores comparison scores, one row per proposal.
type ProposalScoreRepository interface {
	Upsert(ctx context.Context, score *models.ProposalScore) error
	ListByRFP(ctx context.Context, rfpID int64) ([]*models.ProposalScore, error)
}

type proposalScoreRepository struct {
	store database.Store
}

func NewProposalScoreRepository(store database.Store) ProposalScoreRepository {
	return &proposalScoreRepository{store: store}
}

var _ ProposalScoreRepository = (*proposalScoreRepository)(nil)

var (
	upsertScoreStmt = database.Statement{
		Postgres: `
			INSERT INTO proposal_scores (proposal_id, overall_score, price_score, terms_score,
			                             completeness_score, recommendation_reason, ai_analysis, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (proposal_id) DO UPDATE
			SET overall_score = EXCLUDED.overall_score,
			    price_score = EXCLUDED.price_score,
			    terms_score = EXCLUDED.terms_score,
			    completeness_score = EXCLUDED.completeness_score,
			    recommendation_reason = EXCLUDED.recommendation_reason,
			    ai_analysis = EXCLUDED.ai_analysis
			RETURNING id, created_at`,
		SQLite: `
			INSERT INTO proposal_scores (proposal_id, overall_score, price_score, terms_score,
			                             completeness_score, recommendation_reason, ai_analysis, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (proposal_id) DO UPDATE
			SET overall_score = excluded.overall_score,
			    price_score = excluded.price_score,
			    terms_score = excluded.terms_score,
			    completeness_score = excluded.completeness_score,
			    recommendation_reason = excluded.recommendation_reason,
			    ai_analysis = excluded.ai_analysis
			RETURNING id, created_at`,
	}
	listScoresByRFPStmt = database.Statement{
		Postgres: `
			SELECT ps.id, ps.proposal_id, p.vendor_id, ps.overall_score, ps.price_score,
			       ps.terms_score, ps.completeness_score, ps.recommendation_reason,
			       ps.ai_analysis, ps.created_at
			FROM proposal_scores ps
			JOIN proposals p ON p.id = ps.proposal_id
			WHERE p.rfp_id = $1
			ORDER BY ps.overall_score DESC, ps.id`,
		SQLite: `
			SELECT ps.id, ps.proposal_id, p.vendor_id, ps.overall_score, ps.price_score,
			       ps.terms_score, ps.completeness_score, ps.recommendation_reason,
			       ps.ai_analysis, ps.created_at
			FROM proposal_scores ps
			JOIN proposals p ON p.id = ps.proposal_id
			WHERE p.rfp_id = ?
			ORDER BY ps.overall_score DESC, ps.id`,
	}
)

func (r *proposalScoreRepository) Upsert(ctx context.Context, score *models.ProposalScore) error {
	var analysis any
	if score.AIAnalysis != nil {
		text, err := jsonText(score.AIAnalysis)
		if err != nil {
			return fmt.Errorf("failed to marshal analysis: %w", err)
		}
		analysis = text
	}

	err := r.store.QueryRow(ctx, upsertScoreStmt,
		score.ProposalID,
		score.OverallScore,
		score.PriceScore,
		score.TermsScore,
		score.CompletenessScore,
		score.RecommendationReason,
		analysis,
		now(),
	).Scan(&score.ID, scanTime(&score.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to save proposal score: %w", err)
	}
	return nil
}

// ListByRFP returns the scores of all proposals under an RFP, best first.
func (r *proposalScoreRepository) ListByRFP(ctx context.Context, rfpID int64) ([]*models.ProposalScore, error) {
	rows, err := r.store.Query(ctx, listScoresByRFPStmt, rfpID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposal scores: %w", err)
	}
	defer rows.Close()

	scores := []*models.ProposalScore{}
	for rows.Next() {
		var (
			s                               models.ProposalScore
			overall, price, terms, complete sql.NullFloat64
			reason                          sql.NullString
			analysis                        []byte
		)
		err := rows.Scan(
			&s.ID, &s.ProposalID, &s.VendorID, &overall, &price, &terms, &complete,
			&reason, &analysis, scanTime(&s.CreatedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal score: %w", err)
		}
		s.OverallScore = overall.Float64
		s.PriceScore = price.Float64
		s.TermsScore = terms.Float64
		s.CompletenessScore = complete.Float64
		s.RecommendationReason = reason.String
		if len(analysis) > 0 {
			s.AIAnalysis = &models.ComparisonResult{}
			if err := json.Unmarshal(analysis, s.AIAnalysis); err != nil {
				return nil, fmt.Errorf("failed to decode analysis: %w", err)
			}
		}
		scores = append(scores, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposal scores: %w", err)
	}
	return scores, nil
}
