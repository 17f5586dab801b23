package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/extraction"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/repositories"
)

// ComparisonService scores the proposals received for an RFP.
type ComparisonService interface {
	// Compare scores every proposal for the RFP, stores one score per
	// proposal and returns the comparison with the refreshed proposals.
	Compare(ctx context.Context, rfpID int64) (*models.ComparisonReport, error)
}

type comparisonService struct {
	rfpRepo      repositories.RFPRepository
	proposalRepo repositories.ProposalRepository
	scoreRepo    repositories.ProposalScoreRepository
	extractor    extraction.Extractor
	logger       *zap.Logger
}

var _ ComparisonService = (*comparisonService)(nil)

func NewComparisonService(
	rfpRepo repositories.RFPRepository,
	proposalRepo repositories.ProposalRepository,
	scoreRepo repositories.ProposalScoreRepository,
	extractor extraction.Extractor,
	logger *zap.Logger,
) ComparisonService {
	return &comparisonService{
		rfpRepo:      rfpRepo,
		proposalRepo: proposalRepo,
		scoreRepo:    scoreRepo,
		extractor:    extractor,
		logger:       logger.Named("comparison"),
	}
}

func (s *comparisonService) Compare(ctx context.Context, rfpID int64) (*models.ComparisonReport, error) {
	rfp, err := s.rfpRepo.GetByID(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if rfp == nil {
		return nil, apperrors.ErrNotFound
	}

	proposals, err := s.proposalRepo.ListByRFP(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	if len(proposals) < 2 {
		return nil, apperrors.ErrInsufficientProposals
	}

	input := ComparisonInputFor(rfp, proposals)
	result, err := s.extractor.CompareProposals(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to compare proposals: %w", err)
	}

	for _, sp := range result.Proposals {
		score := &models.ProposalScore{
			ProposalID:           sp.ProposalID,
			OverallScore:         sp.OverallScore,
			PriceScore:           sp.PriceScore,
			TermsScore:           sp.TermsScore,
			CompletenessScore:    sp.CompletenessScore,
			RecommendationReason: sp.RecommendationReason,
			AIAnalysis:           result,
		}
		if err := s.scoreRepo.Upsert(ctx, score); err != nil {
			return nil, err
		}
	}

	refreshed, err := s.proposalRepo.ListByRFP(ctx, rfpID)
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRepo.ListByRFP(ctx, rfpID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Compared proposals",
		zap.Int64("rfp_id", rfpID),
		zap.Int("proposals", len(proposals)),
		zap.Int64("best_proposal_id", result.BestProposalID),
		zap.String("mode", result.Mode))

	return &models.ComparisonReport{
		Comparison: result,
		Proposals:  refreshed,
		Scores:     scores,
	}, nil
}

// ComparisonInputFor projects an RFP and its proposals to what the
// comparison step needs.
func ComparisonInputFor(rfp *models.RFP, proposals []*models.Proposal) *models.ComparisonInput {
	input := &models.ComparisonInput{
		RFP: models.RFPExpectations{
			Title:          rfp.Title,
			Budget:         rfp.Budget,
			DeliveryDate:   rfp.DeliveryDate,
			PaymentTerms:   rfp.PaymentTerms,
			WarrantyPeriod: rfp.WarrantyPeriod,
			Requirements:   rfp.Requirements,
		},
		Proposals: make([]models.ProposalSummary, 0, len(proposals)),
	}
	for _, p := range proposals {
		input.Proposals = append(input.Proposals, models.ProposalSummary{
			ID:              p.ID,
			VendorName:      p.VendorName,
			TotalPrice:      p.TotalPrice,
			LineItems:       p.LineItems,
			PaymentTerms:    p.PaymentTerms,
			WarrantyPeriod:  p.WarrantyPeriod,
			DeliveryDate:    p.DeliveryDate,
			AdditionalNotes: p.AdditionalNotes,
		})
	}
	return input
}
