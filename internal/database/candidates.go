package database

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/inframirror/inframirror/internal/logger"
	"github.com/inframirror/inframirror/internal/models"
)

// CandidateOperations handles all DynamoDB operations for missing-VM
// candidates. Status transitions are driven by the poster service; this layer
// only persists records and enforces insert-only upsert semantics.
type CandidateOperations struct {
	client    *Client
	tableName string
}

// NewCandidateOperations creates a new CandidateOperations instance
func NewCandidateOperations(client *Client, tableName string) *CandidateOperations {
	return &CandidateOperations{
		client:    client,
		tableName: tableName,
	}
}

// UpsertCandidate inserts a brand-new candidate. If a candidate with the same
// id already exists the write is skipped so that its status, retry count and
// Jira object key survive repeated diff runs. Returns true when a new record
// was inserted.
func (co *CandidateOperations) UpsertCandidate(ctx context.Context, candidate *models.MissingVMCandidate) (bool, error) {
	av, err := attributevalue.MarshalMap(candidate)
	if err != nil {
		return false, fmt.Errorf("failed to marshal candidate: %w", err)
	}

	_, err = co.client.DynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(co.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(ID)"),
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Existing candidate: keep its state untouched
			logger.WithFields(map[string]interface{}{
				"candidate_id": candidate.ID,
				"vm_name":      candidate.VMName,
			}).Debug("Candidate already exists, preserving stored state")
			return false, nil
		}
		return false, fmt.Errorf("failed to upsert candidate: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"candidate_id": candidate.ID,
		"vm_name":      candidate.VMName,
	}).Debug("Candidate inserted into DynamoDB")
	return true, nil
}

// GetCandidate retrieves a candidate by its stable id
func (co *CandidateOperations) GetCandidate(ctx context.Context, id string) (*models.MissingVMCandidate, error) {
	result, err := co.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(co.tableName),
		Key: map[string]types.AttributeValue{
			"ID": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var candidate models.MissingVMCandidate
	if err := attributevalue.UnmarshalMap(result.Item, &candidate); err != nil {
		return nil, fmt.Errorf("failed to unmarshal candidate: %w", err)
	}

	return &candidate, nil
}

// UpdateCandidate writes the full candidate record back. Callers follow a
// read-mutate-write discipline per id, so the last writer wins without
// partial-field races.
func (co *CandidateOperations) UpdateCandidate(ctx context.Context, candidate *models.MissingVMCandidate) error {
	av, err := attributevalue.MarshalMap(candidate)
	if err != nil {
		return fmt.Errorf("failed to marshal candidate: %w", err)
	}

	_, err = co.client.DynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(co.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}

	return nil
}

// ListPending retrieves candidates in pending_creation state, oldest first.
// A limit of 0 means no limit.
func (co *CandidateOperations) ListPending(ctx context.Context, limit int) ([]models.MissingVMCandidate, error) {
	candidates, err := co.scanByStatus(ctx, models.StatusPendingCreation)
	if err != nil {
		return nil, err
	}

	sortByCreatedDate(candidates)

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	logger.WithField("count", len(candidates)).Info("Retrieved pending candidates")
	return candidates, nil
}

// ListFailed retrieves failed candidates that are still retry-eligible,
// meaning their retry count is below maxRetries.
func (co *CandidateOperations) ListFailed(ctx context.Context, maxRetries int) ([]models.MissingVMCandidate, error) {
	result, err := co.scanAllPages(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(co.tableName),
		FilterExpression: aws.String("#status = :status AND RetryCount < :maxRetries"),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: models.StatusFailed},
			":maxRetries": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", maxRetries)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan retryable candidates: %w", err)
	}

	sortByCreatedDate(result)

	logger.WithFields(map[string]interface{}{
		"count":       len(result),
		"max_retries": maxRetries,
	}).Info("Retrieved retryable failed candidates")
	return result, nil
}

// ListByStatus retrieves candidates with paging. An empty status matches all
// candidates. A limit of 0 means no limit.
func (co *CandidateOperations) ListByStatus(ctx context.Context, status string, skip, limit int) ([]models.MissingVMCandidate, error) {
	var candidates []models.MissingVMCandidate
	var err error

	if status == "" {
		candidates, err = co.scanAllPages(ctx, &dynamodb.ScanInput{
			TableName: aws.String(co.tableName),
		})
	} else {
		candidates, err = co.scanByStatus(ctx, status)
	}
	if err != nil {
		return nil, err
	}

	sortByCreatedDate(candidates)

	if skip >= len(candidates) {
		return []models.MissingVMCandidate{}, nil
	}
	candidates = candidates[skip:]

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}

// CountByStatus returns the number of candidates in the given state
func (co *CandidateOperations) CountByStatus(ctx context.Context, status string) (int, error) {
	candidates, err := co.scanByStatus(ctx, status)
	if err != nil {
		return 0, err
	}
	return len(candidates), nil
}

// GetStats aggregates candidate counts by lifecycle state
func (co *CandidateOperations) GetStats(ctx context.Context) (*models.PosterStats, error) {
	all, err := co.scanAllPages(ctx, &dynamodb.ScanInput{
		TableName: aws.String(co.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidates for stats: %w", err)
	}

	stats := &models.PosterStats{
		FailedVMDetails: []models.FailedVMDetail{},
	}

	for _, c := range all {
		switch c.Status {
		case models.StatusPendingCreation:
			stats.PendingVMs++
		case models.StatusFailed:
			stats.FailedVMs++
			stats.FailedVMDetails = append(stats.FailedVMDetails, models.FailedVMDetail{
				VMName:        c.VMName,
				RetryCount:    c.RetryCount,
				FailureReason: c.FailureReason,
			})
		case models.StatusCompleted:
			stats.CompletedVMs++
		}
	}
	stats.TotalProcessed = stats.CompletedVMs + stats.FailedVMs

	return stats, nil
}

// DeleteCandidate removes a single candidate by id
func (co *CandidateOperations) DeleteCandidate(ctx context.Context, id string) error {
	_, err := co.client.DynamoDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(co.tableName),
		Key: map[string]types.AttributeValue{
			"ID": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	return nil
}

// DeleteAll removes every candidate and returns the deleted count
func (co *CandidateOperations) DeleteAll(ctx context.Context) (int, error) {
	all, err := co.scanAllPages(ctx, &dynamodb.ScanInput{
		TableName: aws.String(co.tableName),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan candidates for delete: %w", err)
	}

	return co.deleteCandidates(ctx, all)
}

// DeleteByStatus removes every candidate in the given state and returns the
// deleted count
func (co *CandidateOperations) DeleteByStatus(ctx context.Context, status string) (int, error) {
	matching, err := co.scanByStatus(ctx, status)
	if err != nil {
		return 0, err
	}

	return co.deleteCandidates(ctx, matching)
}

func (co *CandidateOperations) deleteCandidates(ctx context.Context, candidates []models.MissingVMCandidate) (int, error) {
	deleted := 0
	for _, c := range candidates {
		if err := co.DeleteCandidate(ctx, c.ID); err != nil {
			logger.WithFields(map[string]interface{}{
				"candidate_id": c.ID,
				"error":        err.Error(),
			}).Error("Failed to delete candidate")
			continue
		}
		deleted++
	}

	logger.WithField("deleted", deleted).Info("Deleted candidates from DynamoDB")
	return deleted, nil
}

// scanByStatus retrieves all candidates in the given state
func (co *CandidateOperations) scanByStatus(ctx context.Context, status string) ([]models.MissingVMCandidate, error) {
	result, err := co.scanAllPages(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(co.tableName),
		FilterExpression: aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidates by status: %w", err)
	}
	return result, nil
}

// scanAllPages runs a scan to completion, following LastEvaluatedKey paging
func (co *CandidateOperations) scanAllPages(ctx context.Context, input *dynamodb.ScanInput) ([]models.MissingVMCandidate, error) {
	var candidates []models.MissingVMCandidate
	var lastKey map[string]types.AttributeValue

	for {
		input.ExclusiveStartKey = lastKey
		result, err := co.client.DynamoDB.Scan(ctx, input)
		if err != nil {
			return nil, err
		}

		var page []models.MissingVMCandidate
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal candidates: %w", err)
		}
		candidates = append(candidates, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return candidates, nil
}

func sortByCreatedDate(candidates []models.MissingVMCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedDate.Before(candidates[j].CreatedDate)
	})
}
