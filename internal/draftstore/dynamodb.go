package draftstore

import (
	"context"
	"time"

	"opulanz-onboarding/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of *dynamodb.Client the store needs.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Table requirements: partition key "pk" (string). "expiresAt" can be enabled as
// the table's TTL attribute.
type draftItem struct {
	PK        string `dynamodbav:"pk"`
	Snapshot  string `dynamodbav:"snapshot"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt,omitempty"`
}

type DynamoStore struct {
	base
	api   DynamoAPI
	table string
	ttl   time.Duration
	clock func() time.Time
}

func NewDynamoStore(api DynamoAPI, table string, codec Codec, ttl time.Duration, log logger.Logger) *DynamoStore {
	return &DynamoStore{
		base:  newBase("dynamodb", codec, log),
		api:   api,
		table: table,
		ttl:   ttl,
		clock: time.Now,
	}
}

func (s *DynamoStore) Save(ctx context.Context, key Key, snap Snapshot) error {
	err := s.save(ctx, key, snap)
	s.observe("save", err)
	return err
}

func (s *DynamoStore) save(ctx context.Context, key Key, snap Snapshot) error {
	data, err := s.codec.Encode(snap)
	if err != nil {
		return err
	}

	it := draftItem{
		PK:        s.codec.Path(key),
		Snapshot:  string(data),
		UpdatedAt: snap.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if s.ttl > 0 {
		it.ExpiresAt = s.clock().Add(s.ttl).Unix()
	}

	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return err
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	return err
}

func (s *DynamoStore) Load(ctx context.Context, key Key) (Snapshot, bool, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.keyAttr(key),
		ConsistentRead: aws.Bool(true),
	})
	s.observe("load", err)
	if err != nil {
		return Snapshot{}, false, err
	}
	if len(out.Item) == 0 {
		return Snapshot{}, false, nil
	}

	var it draftItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return s.decode(ctx, key, nil, s.Clear)
	}
	// TTL deletion lags by up to two days; an expired item is already gone.
	if it.ExpiresAt > 0 && it.ExpiresAt <= s.clock().Unix() {
		return Snapshot{}, false, nil
	}
	return s.decode(ctx, key, []byte(it.Snapshot), s.Clear)
}

func (s *DynamoStore) Clear(ctx context.Context, key Key) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.keyAttr(key),
	})
	s.observe("clear", err)
	return err
}

func (s *DynamoStore) keyAttr(key Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: s.codec.Path(key)},
	}
}
