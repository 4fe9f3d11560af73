package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/inframirror/inframirror/internal/logger"
	"github.com/inframirror/inframirror/internal/models"
)

// VCenterVMOperations handles all DynamoDB operations for collected vCenter VMs.
// The collection collaborator writes these records; the diff engine only reads
// and purges them.
type VCenterVMOperations struct {
	client    *Client
	tableName string
}

// NewVCenterVMOperations creates a new VCenterVMOperations instance
func NewVCenterVMOperations(client *Client, tableName string) *VCenterVMOperations {
	return &VCenterVMOperations{
		client:    client,
		tableName: tableName,
	}
}

// GetAllVMs retrieves every vCenter VM record, following scan pagination
func (vo *VCenterVMOperations) GetAllVMs(ctx context.Context) ([]models.VCenterVM, error) {
	var vms []models.VCenterVM
	var lastKey map[string]types.AttributeValue

	for {
		result, err := vo.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(vo.tableName),
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan vcenter vms: %w", err)
		}

		var page []models.VCenterVM
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vcenter vms: %w", err)
		}
		vms = append(vms, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	logger.WithField("count", len(vms)).Debug("Retrieved vCenter VMs from DynamoDB")
	return vms, nil
}

// GetVMByMobID retrieves a single vCenter VM by its managed-object id
func (vo *VCenterVMOperations) GetVMByMobID(ctx context.Context, mobID string) (*models.VCenterVM, error) {
	result, err := vo.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(vo.tableName),
		Key: map[string]types.AttributeValue{
			"MobID": &types.AttributeValueMemberS{Value: mobID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get vcenter vm: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var vm models.VCenterVM
	if err := attributevalue.UnmarshalMap(result.Item, &vm); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vcenter vm: %w", err)
	}

	return &vm, nil
}

// CountVMs returns the number of vCenter VM records
func (vo *VCenterVMOperations) CountVMs(ctx context.Context) (int, error) {
	count := 0
	var lastKey map[string]types.AttributeValue

	for {
		result, err := vo.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(vo.tableName),
			Select:            types.SelectCount,
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to count vcenter vms: %w", err)
		}

		count += int(result.Count)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return count, nil
}

// DeleteAllVMs removes every vCenter VM record and returns the deleted count
func (vo *VCenterVMOperations) DeleteAllVMs(ctx context.Context) (int, error) {
	deleted := 0
	var lastKey map[string]types.AttributeValue

	for {
		result, err := vo.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(vo.tableName),
			ProjectionExpression: aws.String("MobID"),
			ExclusiveStartKey:    lastKey,
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to scan vcenter vms for delete: %w", err)
		}

		for _, item := range result.Items {
			_, err := vo.client.DynamoDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(vo.tableName),
				Key: map[string]types.AttributeValue{
					"MobID": item["MobID"],
				},
			})
			if err != nil {
				logger.WithError(err).Error("Failed to delete vCenter VM record")
				continue
			}
			deleted++
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	logger.WithField("deleted", deleted).Info("Deleted vCenter VM records from DynamoDB")
	return deleted, nil
}
