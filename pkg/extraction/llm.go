package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-procure/pkg/llm"
	"github.com/ekaya-inc/ekaya-procure/pkg/metrics"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/prompts"
)

var errEmptyComparison = errors.New("comparison response contained no proposals")

// LLMExtractor asks a language model for structured output and falls back to
// the heuristic when the call fails or the reply cannot be used. With a nil
// client it always uses the heuristic.
type LLMExtractor struct {
	client    llm.LLMClient
	heuristic *HeuristicExtractor
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

var _ Extractor = (*LLMExtractor)(nil)

// New returns an extractor backed by client, or a heuristic-only one when
// client is nil.
func New(client llm.LLMClient, m *metrics.Metrics, logger *zap.Logger) *LLMExtractor {
	h := NewHeuristicExtractor()
	return &LLMExtractor{
		client:    client,
		heuristic: h,
		metrics:   m,
		logger:    logger.Named("extraction"),
		now:       time.Now,
	}
}

func (e *LLMExtractor) Mode() string {
	if e.client == nil {
		return models.ComparisonModeHeuristic
	}
	return models.ComparisonModeAI
}

func (e *LLMExtractor) ExtractRFP(ctx context.Context, text string) (*models.RFPExtraction, error) {
	if e.client == nil {
		e.metrics.ObserveExtraction(KindRFP, models.ComparisonModeHeuristic)
		return e.heuristic.ExtractRFP(ctx, text)
	}

	prompt := prompts.BuildRFPPrompt(text, models.NewDate(e.now()))
	out, err := generate[models.RFPExtraction](ctx, e.client, prompt, prompts.RFPSystemMessage(), prompts.RFPTemperature)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.fallback(KindRFP, err)
		return e.heuristic.ExtractRFP(ctx, text)
	}

	e.metrics.ObserveExtraction(KindRFP, models.ComparisonModeAI)
	return &out, nil
}

func (e *LLMExtractor) ExtractProposal(ctx context.Context, subject, body string) (*models.ProposalExtraction, error) {
	if e.client == nil {
		e.metrics.ObserveExtraction(KindProposal, models.ComparisonModeHeuristic)
		return e.heuristic.ExtractProposal(ctx, subject, body)
	}

	prompt := prompts.BuildProposalPrompt(subject, body)
	out, err := generate[models.ProposalExtraction](ctx, e.client, prompt, prompts.ProposalSystemMessage(), prompts.ProposalTemperature)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.fallback(KindProposal, err)
		return e.heuristic.ExtractProposal(ctx, subject, body)
	}

	e.metrics.ObserveExtraction(KindProposal, models.ComparisonModeAI)
	return &out, nil
}

func (e *LLMExtractor) CompareProposals(ctx context.Context, input *models.ComparisonInput) (*models.ComparisonResult, error) {
	if e.client == nil {
		e.metrics.ObserveExtraction(KindComparison, models.ComparisonModeHeuristic)
		return ScoreByPrice(input), nil
	}

	prompt, err := prompts.BuildComparisonPrompt(input)
	if err != nil {
		return nil, fmt.Errorf("failed to build comparison prompt: %w", err)
	}

	out, err := generate[models.ComparisonResult](ctx, e.client, prompt, prompts.ComparisonSystemMessage(), prompts.ComparisonTemperature)
	if err == nil && len(out.Proposals) == 0 {
		err = errEmptyComparison
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.fallback(KindComparison, err)
		return ScoreByPrice(input), nil
	}

	e.metrics.ObserveExtraction(KindComparison, models.ComparisonModeAI)
	return Reconcile(&out, input), nil
}

func (e *LLMExtractor) fallback(kind string, err error) {
	e.logger.Warn("Language model extraction failed, using heuristic",
		zap.String("kind", kind),
		zap.String("error_type", string(llm.GetErrorType(err))),
		zap.Error(err))
	e.metrics.ObserveFallback(kind)
	e.metrics.ObserveExtraction(kind, models.ComparisonModeHeuristic)
}

func generate[T any](ctx context.Context, client llm.LLMClient, prompt, system string, temperature float64) (T, error) {
	var zero T
	result, err := client.GenerateResponse(ctx, prompt, system, temperature)
	if err != nil {
		return zero, err
	}
	out, err := llm.ParseJSONResponse[T](result.Content)
	if err != nil {
		return zero, llm.NewError(llm.ErrorTypeResponse, "unusable model response", false, err)
	}
	return out, nil
}

// Reconcile makes a model's comparison consistent with its input: scores are
// clamped to 0-100, entries for unknown proposals are dropped, proposals the
// model skipped get price-based scores, and the best proposal is always one
// of the inputs.
func Reconcile(result *models.ComparisonResult, input *models.ComparisonInput) *models.ComparisonResult {
	known := make(map[int64]bool, len(input.Proposals))
	for _, p := range input.Proposals {
		known[p.ID] = true
	}

	seen := make(map[int64]bool, len(result.Proposals))
	scored := make([]models.ScoredProposal, 0, len(input.Proposals))
	for _, sp := range result.Proposals {
		if !known[sp.ProposalID] || seen[sp.ProposalID] {
			continue
		}
		seen[sp.ProposalID] = true
		sp.OverallScore = ClampScore(sp.OverallScore)
		sp.PriceScore = ClampScore(sp.PriceScore)
		sp.TermsScore = ClampScore(sp.TermsScore)
		sp.CompletenessScore = ClampScore(sp.CompletenessScore)
		scored = append(scored, sp)
	}

	if len(seen) < len(input.Proposals) {
		byPrice := ScoreByPrice(input)
		for _, sp := range byPrice.Proposals {
			if !seen[sp.ProposalID] {
				scored = append(scored, sp)
			}
		}
	}

	result.Proposals = scored
	if !known[result.BestProposalID] {
		result.BestProposalID = 0
		best := -1.0
		for _, sp := range scored {
			if sp.OverallScore > best {
				best = sp.OverallScore
				result.BestProposalID = sp.ProposalID
			}
		}
	}
	if result.KeyDifferences == nil {
		result.KeyDifferences = []string{}
	}
	result.Mode = models.ComparisonModeAI
	return result
}
