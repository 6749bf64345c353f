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

type userRepository struct {
	client API
	table  string
}

// NewUserRepository returns a domain.UserRepository on a table keyed by
// userId with the TimeZoneIndex secondary index.
func NewUserRepository(client API, table string) domain.UserRepository {
	return &userRepository{client: client, table: table}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                marshalUser(u),
		ConditionExpression: aws.String("attribute_not_exists(userId)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return domain.ErrDuplicateUser
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       map[string]types.AttributeValue{"userId": str(id)},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return unmarshalUser(out.Item), nil
}

// ListByTimeZone queries the zone index, following pagination to the end.
func (r *userRepository) ListByTimeZone(ctx context.Context, zone string) ([]*domain.User, error) {
	in := &dynamodb.QueryInput{
		TableName:                aws.String(r.table),
		IndexName:                aws.String(TimeZoneIndex),
		KeyConditionExpression:   aws.String("#tz = :tz"),
		ExpressionAttributeNames: map[string]string{"#tz": "timezone"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tz": str(zone),
		},
	}
	users := make([]*domain.User, 0)
	for {
		out, err := r.client.Query(ctx, in)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			users = append(users, unmarshalUser(item))
		}
		if len(out.LastEvaluatedKey) == 0 {
			return users, nil
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *userRepository) UpdateTimeZone(ctx context.Context, id, zone string, updatedAt time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.table),
		Key:                      map[string]types.AttributeValue{"userId": str(id)},
		UpdateExpression:         aws.String("SET #tz = :tz, updatedAt = :u"),
		ConditionExpression:      aws.String("attribute_exists(userId)"),
		ExpressionAttributeNames: map[string]string{"#tz": "timezone"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tz": str(zone),
			":u":  str(updatedAt.UTC().Format(time.RFC3339)),
		},
	})
	return notFoundOnConditionFailure(err)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 map[string]types.AttributeValue{"userId": str(id)},
		ConditionExpression: aws.String("attribute_exists(userId)"),
	})
	return notFoundOnConditionFailure(err)
}

func notFoundOnConditionFailure(err error) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return domain.ErrUserNotFound
	}
	return err
}

func marshalUser(u *domain.User) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"userId":    str(u.ID),
		"firstName": str(u.FirstName),
		"lastName":  str(u.LastName),
		"birthday":  str(u.Birthday.String()),
		"timezone":  str(u.TimeZone),
		"createdAt": str(u.CreatedAt.UTC().Format(time.RFC3339)),
		"updatedAt": str(u.UpdatedAt.UTC().Format(time.RFC3339)),
	}
	if u.Anniversary != nil && !u.Anniversary.IsZero() {
		item["anniversary"] = str(u.Anniversary.String())
	}
	return item
}

// unmarshalUser tolerates missing or unparsable attributes; such records are
// skipped by the matcher with a warning.
func unmarshalUser(item map[string]types.AttributeValue) *domain.User {
	u := &domain.User{
		ID:        getStr(item, "userId"),
		FirstName: getStr(item, "firstName"),
		LastName:  getStr(item, "lastName"),
		TimeZone:  getStr(item, "timezone"),
	}
	if d, err := domain.ParseCalendarDate(getStr(item, "birthday")); err == nil {
		u.Birthday = d
	}
	if d, err := domain.ParseCalendarDate(getStr(item, "anniversary")); err == nil {
		u.Anniversary = &d
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, getStr(item, "createdAt"))
	u.UpdatedAt, _ = time.Parse(time.RFC3339, getStr(item, "updatedAt"))
	return u
}
