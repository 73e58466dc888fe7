package storage

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/campaign-intelligence/internal/config"
	"github.com/ignite/campaign-intelligence/internal/pkg/awsutil"
)

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// historyItem is the DynamoDB row for one archived report.
type historyItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
	Entry
	TTL int64 `dynamodbav:"TTL,omitempty"`
}

// AWSArchive writes report snapshots to S3 and indexes them in DynamoDB
// under PK=ORG#<org>, SK=<kind>#<timestamp>.
type AWSArchive struct {
	s3        s3API
	dynamoDB  dynamoAPI
	bucket    string
	tableName string
	retention time.Duration
}

// NewAWSArchive creates the S3 and DynamoDB clients from storage config.
func NewAWSArchive(ctx context.Context, cfg config.StorageConfig) (*AWSArchive, error) {
	awsCfg, err := awsutil.LoadConfig(ctx, awsutil.Options{
		Region:  cfg.AWSRegion,
		Profile: cfg.GetAWSProfile(),
	})
	if err != nil {
		return nil, err
	}
	return newAWSArchive(s3.NewFromConfig(awsCfg), dynamodb.NewFromConfig(awsCfg),
		cfg.S3Bucket, cfg.DynamoDBTable, cfg.Retention()), nil
}

func newAWSArchive(s s3API, d dynamoAPI, bucket, table string, retention time.Duration) *AWSArchive {
	return &AWSArchive{s3: s, dynamoDB: d, bucket: bucket, tableName: table, retention: retention}
}

func orgPK(orgID string) string { return "ORG#" + orgID }

func (a *AWSArchive) Save(ctx context.Context, orgID string, kind Kind, at time.Time, report any) (Entry, error) {
	e, data, err := encode(orgID, kind, at, report)
	if err != nil {
		return Entry{}, err
	}

	_, err = a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(e.ObjectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return Entry{}, fmt.Errorf("putting object to S3: %w", err)
	}

	item := historyItem{
		PK:    orgPK(orgID),
		SK:    fmt.Sprintf("%s#%s", kind, e.GeneratedAt.Format(time.RFC3339)),
		Entry: e,
	}
	if a.retention > 0 {
		item.TTL = e.GeneratedAt.Add(a.retention).Unix()
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return Entry{}, fmt.Errorf("marshaling history item: %w", err)
	}
	_, err = a.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.tableName),
		Item:      av,
	})
	if err != nil {
		return Entry{}, fmt.Errorf("saving history item to DynamoDB: %w", err)
	}
	return e, nil
}

func (a *AWSArchive) History(ctx context.Context, orgID string, kind Kind, limit int) ([]Entry, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(a.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: orgPK(orgID)},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if kind != "" {
		in.KeyConditionExpression = aws.String("PK = :pk AND begins_with(SK, :kind)")
		in.ExpressionAttributeValues[":kind"] = &types.AttributeValueMemberS{Value: string(kind) + "#"}
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	result, err := a.dynamoDB.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("querying report history: %w", err)
	}

	var items []historyItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshaling report history: %w", err)
	}
	out := make([]Entry, len(items))
	for i, it := range items {
		out[i] = it.Entry
	}
	// SK order groups by kind first.
	slices.SortStableFunc(out, func(x, y Entry) int { return y.GeneratedAt.Compare(x.GeneratedAt) })
	return out, nil
}

// Ping checks that the bucket is reachable.
func (a *AWSArchive) Ping(ctx context.Context) error {
	_, err := a.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	return err
}
