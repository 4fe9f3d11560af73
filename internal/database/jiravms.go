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

// JiraVMOperations handles all DynamoDB operations for collected Jira VM assets
type JiraVMOperations struct {
	client    *Client
	tableName string
}

// NewJiraVMOperations creates a new JiraVMOperations instance
func NewJiraVMOperations(client *Client, tableName string) *JiraVMOperations {
	return &JiraVMOperations{
		client:    client,
		tableName: tableName,
	}
}

// GetAllVMs retrieves every Jira VM asset record, following scan pagination
func (jo *JiraVMOperations) GetAllVMs(ctx context.Context) ([]models.JiraVM, error) {
	var vms []models.JiraVM
	var lastKey map[string]types.AttributeValue

	for {
		result, err := jo.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(jo.tableName),
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan jira vms: %w", err)
		}

		var page []models.JiraVM
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal jira vms: %w", err)
		}
		vms = append(vms, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	logger.WithField("count", len(vms)).Debug("Retrieved Jira VM assets from DynamoDB")
	return vms, nil
}

// CountVMs returns the number of Jira VM asset records
func (jo *JiraVMOperations) CountVMs(ctx context.Context) (int, error) {
	count := 0
	var lastKey map[string]types.AttributeValue

	for {
		result, err := jo.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(jo.tableName),
			Select:            types.SelectCount,
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to count jira vms: %w", err)
		}

		count += int(result.Count)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return count, nil
}

// DeleteAllVMs removes every Jira VM asset record and returns the deleted count
func (jo *JiraVMOperations) DeleteAllVMs(ctx context.Context) (int, error) {
	deleted := 0
	var lastKey map[string]types.AttributeValue

	for {
		result, err := jo.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(jo.tableName),
			ProjectionExpression: aws.String("JiraObjectKey"),
			ExclusiveStartKey:    lastKey,
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to scan jira vms for delete: %w", err)
		}

		for _, item := range result.Items {
			_, err := jo.client.DynamoDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(jo.tableName),
				Key: map[string]types.AttributeValue{
					"JiraObjectKey": item["JiraObjectKey"],
				},
			})
			if err != nil {
				logger.WithError(err).Error("Failed to delete Jira VM asset record")
				continue
			}
			deleted++
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	logger.WithField("deleted", deleted).Info("Deleted Jira VM asset records from DynamoDB")
	return deleted, nil
}
