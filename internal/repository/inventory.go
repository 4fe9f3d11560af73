package repository

import (
	"context"

	"github.com/inframirror/inframirror/internal/database"
	"github.com/inframirror/inframirror/internal/models"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = database.ErrNotFound
)

// VCenterVMRepository defines read access to the collected vCenter inventory
type VCenterVMRepository interface {
	GetAll(ctx context.Context) ([]models.VCenterVM, error)
	GetByMobID(ctx context.Context, mobID string) (*models.VCenterVM, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) (int, error)
}

// JiraVMRepository defines read access to the collected Jira asset inventory
type JiraVMRepository interface {
	GetAll(ctx context.Context) ([]models.JiraVM, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) (int, error)
}

// dynamoVCenterVMRepository implements VCenterVMRepository using DynamoDB
type dynamoVCenterVMRepository struct {
	db *database.VCenterVMOperations
}

// NewVCenterVMRepository creates a new DynamoDB-backed vCenter VM repository
func NewVCenterVMRepository(db *database.VCenterVMOperations) VCenterVMRepository {
	return &dynamoVCenterVMRepository{
		db: db,
	}
}

func (r *dynamoVCenterVMRepository) GetAll(ctx context.Context) ([]models.VCenterVM, error) {
	return r.db.GetAllVMs(ctx)
}

func (r *dynamoVCenterVMRepository) GetByMobID(ctx context.Context, mobID string) (*models.VCenterVM, error) {
	return r.db.GetVMByMobID(ctx, mobID)
}

func (r *dynamoVCenterVMRepository) Count(ctx context.Context) (int, error) {
	return r.db.CountVMs(ctx)
}

func (r *dynamoVCenterVMRepository) DeleteAll(ctx context.Context) (int, error) {
	return r.db.DeleteAllVMs(ctx)
}

// dynamoJiraVMRepository implements JiraVMRepository using DynamoDB
type dynamoJiraVMRepository struct {
	db *database.JiraVMOperations
}

// NewJiraVMRepository creates a new DynamoDB-backed Jira VM repository
func NewJiraVMRepository(db *database.JiraVMOperations) JiraVMRepository {
	return &dynamoJiraVMRepository{
		db: db,
	}
}

func (r *dynamoJiraVMRepository) GetAll(ctx context.Context) ([]models.JiraVM, error) {
	return r.db.GetAllVMs(ctx)
}

func (r *dynamoJiraVMRepository) Count(ctx context.Context) (int, error) {
	return r.db.CountVMs(ctx)
}

func (r *dynamoJiraVMRepository) DeleteAll(ctx context.Context) (int, error) {
	return r.db.DeleteAllVMs(ctx)
}
