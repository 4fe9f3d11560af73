package repository

import (
	"context"

	"github.com/inframirror/inframirror/internal/database"
	"github.com/inframirror/inframirror/internal/models"
)

// CandidateRepository defines the persistence contract for missing-VM
// candidates. Upsert never regresses an existing candidate's lifecycle state.
type CandidateRepository interface {
	Upsert(ctx context.Context, candidate *models.MissingVMCandidate) (bool, error)
	Get(ctx context.Context, id string) (*models.MissingVMCandidate, error)
	Update(ctx context.Context, candidate *models.MissingVMCandidate) error
	ListPending(ctx context.Context, limit int) ([]models.MissingVMCandidate, error)
	ListFailed(ctx context.Context, maxRetries int) ([]models.MissingVMCandidate, error)
	ListByStatus(ctx context.Context, status string, skip, limit int) ([]models.MissingVMCandidate, error)
	GetStats(ctx context.Context) (*models.PosterStats, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int, error)
	DeleteByStatus(ctx context.Context, status string) (int, error)
}

// dynamoCandidateRepository implements CandidateRepository using DynamoDB
type dynamoCandidateRepository struct {
	db *database.CandidateOperations
}

// NewCandidateRepository creates a new DynamoDB-backed candidate repository
func NewCandidateRepository(db *database.CandidateOperations) CandidateRepository {
	return &dynamoCandidateRepository{
		db: db,
	}
}

func (r *dynamoCandidateRepository) Upsert(ctx context.Context, candidate *models.MissingVMCandidate) (bool, error) {
	return r.db.UpsertCandidate(ctx, candidate)
}

func (r *dynamoCandidateRepository) Get(ctx context.Context, id string) (*models.MissingVMCandidate, error) {
	return r.db.GetCandidate(ctx, id)
}

func (r *dynamoCandidateRepository) Update(ctx context.Context, candidate *models.MissingVMCandidate) error {
	return r.db.UpdateCandidate(ctx, candidate)
}

func (r *dynamoCandidateRepository) ListPending(ctx context.Context, limit int) ([]models.MissingVMCandidate, error) {
	return r.db.ListPending(ctx, limit)
}

func (r *dynamoCandidateRepository) ListFailed(ctx context.Context, maxRetries int) ([]models.MissingVMCandidate, error) {
	return r.db.ListFailed(ctx, maxRetries)
}

func (r *dynamoCandidateRepository) ListByStatus(ctx context.Context, status string, skip, limit int) ([]models.MissingVMCandidate, error) {
	return r.db.ListByStatus(ctx, status, skip, limit)
}

func (r *dynamoCandidateRepository) GetStats(ctx context.Context) (*models.PosterStats, error) {
	return r.db.GetStats(ctx)
}

func (r *dynamoCandidateRepository) Delete(ctx context.Context, id string) error {
	return r.db.DeleteCandidate(ctx, id)
}

func (r *dynamoCandidateRepository) DeleteAll(ctx context.Context) (int, error) {
	return r.db.DeleteAll(ctx)
}

func (r *dynamoCandidateRepository) DeleteByStatus(ctx context.Context, status string) (int, error) {
	return r.db.DeleteByStatus(ctx, status)
}
