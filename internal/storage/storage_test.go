package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-intelligence/internal/config"
)

const org = "0f8fad5b-d9cb-469f-a165-70867728950e"

type sampleReport struct {
	TotalCampaigns int    `json:"total_campaigns"`
	Summary        string `json:"summary"`
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 10, 15, 23, 30, 0, 0, time.FixedZone("PDT", -7*3600))
	assert.Equal(t, "reports/"+org+"/patterns/2026-10-16.json", ObjectKey(org, KindPatterns, at))
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"", "patterns", "forecast"} {
		_, ok := ParseKind(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseKind("digest")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	a, err := New(context.Background(), config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalArchive{}, a)

	_, err = New(context.Background(), config.StorageConfig{Type: "ftp"})
	assert.ErrorContains(t, err, "unknown storage type")
}

func TestLocalArchive(t *testing.T) {
	dir := t.TempDir()
	a, err := NewLocalArchive(dir)
	require.NoError(t, err)
	ctx := context.Background()
	day1 := time.Date(2026, 10, 13, 3, 0, 0, 0, time.UTC)

	e, err := a.Save(ctx, org, KindPatterns, day1, sampleReport{TotalCampaigns: 4, Summary: "ok"})
	require.NoError(t, err)
	assert.Equal(t, ObjectKey(org, KindPatterns, day1), e.ObjectKey)

	_, err = a.Save(ctx, org, KindPatterns, day1.AddDate(0, 0, 1), sampleReport{TotalCampaigns: 5})
	require.NoError(t, err)
	_, err = a.Save(ctx, org, KindForecast, day1.Add(time.Hour), sampleReport{})
	require.NoError(t, err)
	_, err = a.Save(ctx, "other-org", KindPatterns, day1, sampleReport{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(e.ObjectKey)))
	require.NoError(t, err)
	var env struct {
		Kind   Kind         `json:"kind"`
		Report sampleReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, KindPatterns, env.Kind)
	assert.Equal(t, 4, env.Report.TotalCampaigns)

	all, err := a.History(ctx, org, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, day1.AddDate(0, 0, 1), all[0].GeneratedAt)
	assert.Equal(t, KindForecast, all[1].Kind)

	patterns, err := a.History(ctx, org, KindPatterns, 1)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, day1.AddDate(0, 0, 1), patterns[0].GeneratedAt)

	none, err := a.History(ctx, "missing", "", 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.NoError(t, a.Ping(ctx))
}

func TestLocalArchiveSameDayOverwrites(t *testing.T) {
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	at := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)

	_, err = a.Save(ctx, org, KindPatterns, at, sampleReport{})
	require.NoError(t, err)
	_, err = a.Save(ctx, org, KindPatterns, at.Add(2*time.Hour), sampleReport{})
	require.NoError(t, err)

	h, err := a.History(ctx, org, KindPatterns, 0)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, at.Add(2*time.Hour), h[0].GeneratedAt)
}

// fakeS3 and fakeDynamo keep objects and items in memory. The Query fake
// understands the two key conditions the archive issues.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headErr error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

type fakeDynamo struct {
	mu     sync.Mutex
	items  []map[string]types.AttributeValue
	putErr error
	last   *dynamodb.QueryInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = in
	pk := str(in.ExpressionAttributeValues[":pk"])
	prefix := str(in.ExpressionAttributeValues[":kind"])

	var out []map[string]types.AttributeValue
	for _, it := range f.items {
		if str(it["PK"]) == pk && strings.HasPrefix(str(it["SK"]), prefix) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(x, y map[string]types.AttributeValue) int {
		return strings.Compare(str(y["SK"]), str(x["SK"]))
	})
	if in.Limit != nil && len(out) > int(*in.Limit) {
		out = out[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func TestAWSArchive(t *testing.T) {
	s3c, ddb := &fakeS3{}, &fakeDynamo{}
	a := newAWSArchive(s3c, ddb, "insights-archive", "insight-reports", 90*24*time.Hour)
	ctx := context.Background()
	at := time.Date(2026, 10, 15, 3, 0, 0, 0, time.UTC)

	e, err := a.Save(ctx, org, KindPatterns, at, sampleReport{TotalCampaigns: 7})
	require.NoError(t, err)
	_, err = a.Save(ctx, org, KindForecast, at.Add(time.Minute), sampleReport{})
	require.NoError(t, err)

	body, ok := s3c.objects[e.ObjectKey]
	require.True(t, ok)
	assert.Contains(t, string(body), `"total_campaigns": 7`)

	require.Len(t, ddb.items, 2)
	var item historyItem
	require.NoError(t, attributevalue.UnmarshalMap(ddb.items[0], &item))
	assert.Equal(t, "ORG#"+org, item.PK)
	assert.Equal(t, "patterns#2026-10-15T03:00:00Z", item.SK)
	assert.Equal(t, at.AddDate(0, 0, 90).Unix(), item.TTL)
	assert.Equal(t, e.ObjectKey, item.ObjectKey)

	h, err := a.History(ctx, org, KindPatterns, 5)
	require.NoError(t, err)
	require.Len(t, h, 1)
	assert.Equal(t, at, h[0].GeneratedAt)
	assert.Equal(t, "PK = :pk AND begins_with(SK, :kind)", aws.ToString(ddb.last.KeyConditionExpression))
	assert.False(t, aws.ToBool(ddb.last.ScanIndexForward))
	assert.Equal(t, int32(5), aws.ToInt32(ddb.last.Limit))

	all, err := a.History(ctx, org, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, KindForecast, all[0].Kind, "newest first across kinds")
	assert.Nil(t, ddb.last.Limit)
}

func TestAWSArchiveErrors(t *testing.T) {
	ddb := &fakeDynamo{putErr: errors.New("throttled")}
	s3c := &fakeS3{headErr: errors.New("forbidden")}
	a := newAWSArchive(s3c, ddb, "b", "t", 0)

	_, err := a.Save(context.Background(), org, KindPatterns, time.Now(), sampleReport{})
	assert.ErrorContains(t, err, "DynamoDB")
	assert.Error(t, a.Ping(context.Background()))

	_, err = a.Save(context.Background(), org, KindPatterns, time.Now(), func() {})
	assert.ErrorContains(t, err, "marshaling report")
}
