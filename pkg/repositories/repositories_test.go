package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-procure/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-procure/pkg/database"
	"github.com/ekaya-inc/ekaya-procure/pkg/models"
	"github.com/ekaya-inc/ekaya-procure/pkg/testhelpers"
)

// repoSuite lists the store-agnostic repository checks. Each runs against a
// clean store; the SQLite variants run here and the PostgreSQL variants run
// under the integration tag.
var repoSuite = []struct {
	name string
	fn   func(t *testing.T, store database.Store)
}{
	{"VendorCRUD", testVendorCRUD},
	{"VendorDuplicateEmail", testVendorDuplicateEmail},
	{"VendorDeleteInUse", testVendorDeleteInUse},
	{"RFPCreateAndGet", testRFPCreateAndGet},
	{"RFPListNewestFirst", testRFPListNewestFirst},
	{"RFPUpdateStatus", testRFPUpdateStatus},
	{"RFPVendorLatestWins", testRFPVendorLatestWins},
	{"RFPVendorUpsertReplaces", testRFPVendorUpsertReplaces},
	{"ProposalUpsertReplaces", testProposalUpsertReplaces},
	{"ProposalScoresUpsert", testProposalScoresUpsert},
}

func TestRepositories_SQLite(t *testing.T) {
	for _, tc := range repoSuite {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, testhelpers.NewSQLiteStore(t))
		})
	}
}

func createVendor(t *testing.T, store database.Store, name, email string) *models.Vendor {
	t.Helper()
	v := &models.Vendor{Name: name, Email: email}
	require.NoError(t, NewVendorRepository(store).Create(context.Background(), v))
	return v
}

func createRFP(t *testing.T, store database.Store, title string) *models.RFP {
	t.Helper()
	budget := 50000.0
	qty := 20
	deadline := models.NewDate(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC))
	rfp := &models.RFP{
		Title:        title,
		Description:  "I need 20 laptops",
		Budget:       &budget,
		Deadline:     &deadline,
		PaymentTerms: "net 30",
		Requirements: []models.Requirement{{Item: "laptops", Quantity: &qty, Specifications: "16GB RAM"}},
	}
	require.NoError(t, NewRFPRepository(store).Create(context.Background(), rfp))
	return rfp
}

func testVendorCRUD(t *testing.T, store database.Store) {
	ctx := context.Background()
	repo := NewVendorRepository(store)

	v := &models.Vendor{Name: "Acme", Email: "sales@acme.test", Phone: "555-123-4567"}
	require.NoError(t, repo.Create(ctx, v))
	assert.Positive(t, v.ID)
	assert.False(t, v.CreatedAt.IsZero())

	got, err := repo.GetByEmail(ctx, "sales@acme.test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, v.ID, got.ID)
	assert.Equal(t, "555-123-4567", got.Phone)
	assert.Empty(t, got.Address)

	v.Name = "Acme Corp"
	v.Address = "1 Main St"
	require.NoError(t, repo.Update(ctx, v))

	got, err = repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.Equal(t, "1 Main St", got.Address)

	missing, err := repo.GetByEmail(ctx, "nobody@acme.test")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Update(ctx, &models.Vendor{ID: v.ID + 100, Name: "Ghost", Email: "ghost@acme.test"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	createVendor(t, store, "Beta", "beta@beta.test")
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme Corp", list[0].Name)

	require.NoError(t, repo.Delete(ctx, v.ID))
	assert.ErrorIs(t, repo.Delete(ctx, v.ID), apperrors.ErrNotFound)
}

func testVendorDuplicateEmail(t *testing.T, store database.Store) {
	ctx := context.Background()
	repo := NewVendorRepository(store)

	createVendor(t, store, "Acme", "sales@acme.test")

	err := repo.Create(ctx, &models.Vendor{Name: "Other", Email: "sales@acme.test"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateVendor)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	other := createVendor(t, store, "Other", "other@acme.test")
	other.Email = "sales@acme.test"
	assert.ErrorIs(t, repo.Update(ctx, other), apperrors.ErrDuplicateVendor)
}

func testVendorDeleteInUse(t *testing.T, store database.Store) {
	ctx := context.Background()
	v := createVendor(t, store, "Acme", "sales@acme.test")
	rfp := createRFP(t, store, "Laptops")

	require.NoError(t, NewRFPVendorRepository(store).Upsert(ctx, &models.RFPVendor{
		RFPID: rfp.ID, VendorID: v.ID, EmailSubject: "RFP: Laptops",
	}))

	err := NewVendorRepository(store).Delete(ctx, v.ID)
	assert.ErrorIs(t, err, apperrors.ErrVendorInUse)
}

func testRFPCreateAndGet(t *testing.T, store database.Store) {
	ctx := context.Background()
	repo := NewRFPRepository(store)
	created := createRFP(t, store, "Laptops")

	assert.Equal(t, models.RFPStatusDraft, created.Status)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Laptops", got.Title)
	assert.Equal(t, models.RFPStatusDraft, got.Status)
	require.NotNil(t, got.Budget)
	assert.InDelta(t, 50000, *got.Budget, 0.001)
	require.NotNil(t, got.Deadline)
	assert.Equal(t, "2026-11-01", got.Deadline.String())
	assert.Nil(t, got.DeliveryDate)
	require.Len(t, got.Requirements, 1)
	assert.Equal(t, "laptops", got.Requirements[0].Item)
	assert.Equal(t, 20, *got.Requirements[0].Quantity)

	missing, err := repo.GetByID(ctx, created.ID+1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testRFPListNewestFirst(t *testing.T, store database.Store) {
	first := createRFP(t, store, "First")
	second := createRFP(t, store, "Second")

	list, err := NewRFPRepository(store).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func testRFPUpdateStatus(t *testing.T, store database.Store) {
	ctx := context.Background()
	repo := NewRFPRepository(store)
	rfp := createRFP(t, store, "Laptops")

	require.NoError(t, repo.UpdateStatus(ctx, rfp.ID, models.RFPStatusSent))
	got, err := repo.GetByID(ctx, rfp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RFPStatusSent, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, rfp.ID+1, models.RFPStatusClosed), apperrors.ErrNotFound)
}

func testRFPVendorLatestWins(t *testing.T, store database.Store) {
	ctx := context.Background()
	repo := NewRFPVendorRepository(store)
	v := createVendor(t, store, "Acme", "sales@acme.test")
	older := createRFP(t, store, "Older")
	newer := createRFP(t, store, "Newer")

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &models.RFPVendor{RFPID: newer.ID, VendorID: v.ID, SentAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, &models.RFPVendor{RFPID: older.ID, VendorID: v.ID, SentAt: base}))

	latest, err := repo.GetLatestForVendor(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.ID, latest.RFPID)
	assert.Equal(t, "Acme", latest.VendorName)
	assert.True(t, latest.SentAt.Equal(base.Add(time.Hour)))

	none, err := repo.GetLatestForVendor(ctx, v.ID+1)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func testRFPVendorUpsertReplaces(t *testing.T, store database.Store) {
	ctx := context.Background()
	repo := NewRFPVendorRepository(store)
	v := createVendor(t, store, "Acme", "sales@acme.test")
	rfp := createRFP(t, store, "Laptops")

	first := &models.RFPVendor{RFPID: rfp.ID, VendorID: v.ID, MessageID: "<a@x>", DeliveryStatus: models.DeliveryStatusFailed}
	require.NoError(t, repo.Upsert(ctx, first))
	second := &models.RFPVendor{RFPID: rfp.ID, VendorID: v.ID, MessageID: "<b@x>"}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	list, err := repo.ListByRFP(ctx, rfp.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "<b@x>", list[0].MessageID)
	assert.Equal(t, models.DeliveryStatusSent, list[0].DeliveryStatus)
	assert.Equal(t, "sales@acme.test", list[0].VendorEmail)
}

func testProposalUpsertReplaces(t *testing.T, store database.Store) {
	ctx := context.Background()
	repo := NewProposalRepository(store)
	v := createVendor(t, store, "Acme", "sales@acme.test")
	rfp := createRFP(t, store, "Laptops")

	price := 45000.0
	delivery := models.NewDate(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))
	first := &models.Proposal{
		RFPID:        rfp.ID,
		VendorID:     v.ID,
		EmailSubject: "Re: RFP: Laptops",
		EmailBody:    "Total: $45,000",
		TotalPrice:   &price,
		LineItems:    []models.LineItem{{Item: "Laptop", TotalPrice: &price}},
		DeliveryDate: &delivery,
		ExtractedData: map[string]any{
			"total_price": price,
		},
	}
	require.NoError(t, repo.Upsert(ctx, first))
	assert.Positive(t, first.ID)

	lower := 42000.0
	second := &models.Proposal{
		RFPID:        rfp.ID,
		VendorID:     v.ID,
		EmailBody:    "Revised total: $42,000",
		TotalPrice:   &lower,
		PaymentTerms: "net 45",
	}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	list, err := repo.ListByRFP(ctx, rfp.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	assert.Equal(t, "Acme", got.VendorName)
	assert.Equal(t, "sales@acme.test", got.VendorEmail)
	require.NotNil(t, got.TotalPrice)
	assert.InDelta(t, 42000, *got.TotalPrice, 0.001)
	assert.Equal(t, "net 45", got.PaymentTerms)
	assert.Empty(t, got.LineItems)
	assert.Nil(t, got.DeliveryDate)
	assert.Nil(t, got.ExtractedData)

	byID, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Revised total: $42,000", byID.EmailBody)

	missing, err := repo.GetByID(ctx, first.ID+1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testProposalScoresUpsert(t *testing.T, store database.Store) {
	ctx := context.Background()
	v := createVendor(t, store, "Acme", "sales@acme.test")
	rfp := createRFP(t, store, "Laptops")
	p := &models.Proposal{RFPID: rfp.ID, VendorID: v.ID, EmailBody: "quote"}
	require.NoError(t, NewProposalRepository(store).Upsert(ctx, p))

	repo := NewProposalScoreRepository(store)
	analysis := &models.ComparisonResult{
		Proposals:      []models.ScoredProposal{{ProposalID: p.ID, OverallScore: 80}},
		BestProposalID: p.ID,
		Summary:        "only one",
		Mode:           models.ComparisonModeHeuristic,
	}
	require.NoError(t, repo.Upsert(ctx, &models.ProposalScore{
		ProposalID: p.ID, OverallScore: 80, PriceScore: 90, AIAnalysis: analysis,
	}))
	require.NoError(t, repo.Upsert(ctx, &models.ProposalScore{
		ProposalID: p.ID, OverallScore: 75.5, PriceScore: 60, RecommendationReason: "rescored", AIAnalysis: analysis,
	}))

	scores, err := repo.ListByRFP(ctx, rfp.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, v.ID, scores[0].VendorID)
	assert.InDelta(t, 75.5, scores[0].OverallScore, 0.001)
	assert.Equal(t, "rescored", scores[0].RecommendationReason)
	require.NotNil(t, scores[0].AIAnalysis)
	assert.Equal(t, p.ID, scores[0].AIAnalysis.BestProposalID)
	assert.Equal(t, "only one", scores[0].AIAnalysis.Summary)
}
