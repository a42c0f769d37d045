// Package dynamodb reads person attribute rows from the DynamoDB person
// store. Each person is one partition; the sort key distinguishes the
// PERSON row, the COHORTS row and per-target TARGET#<name> rows.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/eligibility-api/internal/person"
)

// ErrPersonNotFound is returned when the person has no rows in the store.
var ErrPersonNotFound = errors.New("person not found")

const (
	pkPrefix     = "PERSON#"
	targetPrefix = "TARGET#"
)

// PersonStore reads attribute rows from a DynamoDB table.
type PersonStore struct {
	client *dynamodb.Client
	table  string
}

// NewPersonStore creates a store against the given table.
func NewPersonStore(client *dynamodb.Client, table string) *PersonStore {
	return &PersonStore{client: client, table: table}
}

// personItem is the stored row shape.
type personItem struct {
	PK                string            `dynamodbav:"PK"`
	SK                string            `dynamodbav:"SK"`
	Attributes        map[string]string `dynamodbav:"Attributes,omitempty"`
	CohortMemberships []string          `dynamodbav:"CohortMemberships,omitempty"`
}

// GetPersonRows queries every row for the person and converts them to
// attribute rows for the calculator.
func (s *PersonStore) GetPersonRows(ctx context.Context, personID string) ([]person.AttributeRow, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkPrefix + personID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying person %s: %w", personID, err)
	}
	if len(out.Items) == 0 {
		return nil, ErrPersonNotFound
	}

	rows := make([]person.AttributeRow, 0, len(out.Items))
	for _, raw := range out.Items {
		var item personItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshaling person row: %w", err)
		}
		rows = append(rows, rowFromItem(item))
	}
	return rows, nil
}

func rowFromItem(item personItem) person.AttributeRow {
	switch {
	case item.SK == person.RowTypePerson:
		return person.AttributeRow{RowType: person.RowTypePerson, Attributes: item.Attributes}
	case item.SK == person.RowTypeCohorts:
		return person.AttributeRow{RowType: person.RowTypeCohorts, Cohorts: item.CohortMemberships}
	case strings.HasPrefix(item.SK, targetPrefix):
		return person.AttributeRow{
			RowType:    person.RowTypeTarget,
			Target:     strings.TrimPrefix(item.SK, targetPrefix),
			Attributes: item.Attributes,
		}
	default:
		// Unknown sort keys are carried as-is and ignored by the view.
		return person.AttributeRow{RowType: item.SK, Attributes: item.Attributes}
	}
}
