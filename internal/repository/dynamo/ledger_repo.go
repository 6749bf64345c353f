package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"eventnotifier/internal/domain"
)

type ledgerRepository struct {
	client API
	table  string
}

// NewLedgerRepository returns a domain.Ledger on a table with partition key
// userId and sort key messageKey.
func NewLedgerRepository(client API, table string) domain.Ledger {
	return &ledgerRepository{client: client, table: table}
}

// Insert is a conditional put that fails when the key already exists.
func (r *ledgerRepository) Insert(ctx context.Context, e domain.LedgerEntry) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item: map[string]types.AttributeValue{
			"userId":     str(e.UserID),
			"messageKey": str(e.MessageKey),
			"createdAt":  str(e.CreatedAt.UTC().Format(time.RFC3339)),
		},
		ConditionExpression: aws.String("attribute_not_exists(messageKey)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return domain.ErrAlreadySent
		}
		return err
	}
	return nil
}
