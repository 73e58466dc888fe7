package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-intelligence/internal/domain"
	"github.com/ignite/campaign-intelligence/internal/repository/postgres"
	"github.com/ignite/campaign-intelligence/internal/service/insights"
)

const orgID = "0f8fad5b-d9cb-469f-a165-70867728950e"

var campaignCols = []string{
	"id", "organization_id", "name", "platform", "objective",
	"status", "budget", "daily_budget", "bid_strategy", "created_at", "updated_at",
}

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestCampaignRepo_GetCampaign(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewCampaignRepo(db)
	created := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM ad_campaigns").
		WithArgs("c1", orgID).
		WillReturnRows(sqlmock.NewRows(campaignCols).
			AddRow("c1", orgID, "Spring", "google", "conversions", "active", 3000.0, 100.0, "manual_cpc", created, created))

	c, err := repo.GetCampaign(context.Background(), orgID, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, c.Status)
	require.NotNil(t, c.DailyBudget)
	assert.Equal(t, 100.0, *c.DailyBudget)
	assert.Equal(t, created, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepo_GetCampaignNotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewCampaignRepo(db)

	mock.ExpectQuery("FROM ad_campaigns").
		WithArgs("missing", orgID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetCampaign(context.Background(), orgID, "missing")
	assert.ErrorIs(t, err, insights.ErrCampaignNotFound)
}

func TestCampaignRepo_ListCampaigns(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewCampaignRepo(db)
	now := time.Now()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(orgID, "paused").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs(orgID, "paused", 2, 2).
		WillReturnRows(sqlmock.NewRows(campaignCols).
			AddRow("c3", orgID, "Three", "meta", "awareness", "paused", 500.0, nil, "", now, now))

	cs, total, err := repo.ListCampaigns(context.Background(), orgID, insights.ListFilter{Status: "paused", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, cs, 1)
	assert.Nil(t, cs[0].DailyBudget)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepo_CampaignsByStatus(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewCampaignRepo(db)
	now := time.Now()

	mock.ExpectQuery("FROM ad_campaigns").
		WithArgs(orgID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(campaignCols).
			AddRow("c1", orgID, "One", "google", "sales", "active", 1000.0, 50.0, "", now, now).
			AddRow("c2", orgID, "Two", "google", "sales", "paused", 1000.0, nil, "", now, now))

	cs, err := repo.CampaignsByStatus(context.Background(), orgID, domain.ForecastableStatuses)
	require.NoError(t, err)
	assert.Len(t, cs, 2)
	assert.Equal(t, domain.CampaignPaused, cs[1].Status)
}

func TestCampaignRepo_SimilarCampaigns(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewCampaignRepo(db)
	ref := domain.Campaign{ID: "c1", OrganizationID: orgID, Platform: "google", Objective: "sales"}

	mock.ExpectQuery("FROM ad_campaigns").
		WithArgs(orgID, "google", "sales", "c1", 10).
		WillReturnRows(sqlmock.NewRows(campaignCols))

	cs, err := repo.SimilarCampaigns(context.Background(), ref, 10)
	require.NoError(t, err)
	assert.Empty(t, cs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepo_Organizations(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewCampaignRepo(db)

	mock.ExpectQuery("SELECT DISTINCT organization_id").
		WillReturnRows(sqlmock.NewRows([]string{"organization_id"}).AddRow("a").AddRow("b"))

	orgs, err := repo.Organizations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, orgs)
}

func TestMetricRepo_MetricSeries(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewMetricRepo(db)
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)

	cols := []string{"campaign_id", "date", "impressions", "clicks", "spend", "conversions", "revenue",
		"ctr", "cpc", "conversion_rate", "roi"}
	mock.ExpectQuery("FROM ad_metrics").
		WithArgs("c1", from, to).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c1", from, 1000, 20, 40.0, 2, 120.0, 2.0, nil, nil, 200.0).
			AddRow("c1", from.AddDate(0, 0, 1), 800, 10, 30.0, 1, 50.0, nil, nil, nil, nil))

	s, err := repo.MetricSeries(context.Background(), "c1", from, to)
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.True(t, s.Sorted())
	require.NotNil(t, s[0].CTR)
	assert.Equal(t, 2.0, *s[0].CTR)
	assert.Nil(t, s[0].CPC)
	assert.Nil(t, s[1].CTR)
	assert.Equal(t, int64(800), s[1].Impressions)
}

func TestMetricRepo_MetricSeriesFailure(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewMetricRepo(db)

	mock.ExpectQuery("FROM ad_metrics").WillReturnError(errors.New("connection reset"))

	s, err := repo.MetricSeries(context.Background(), "c1", time.Now(), time.Now())
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "query metrics")
}

func TestContentRepo_PublishedPosts(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewContentRepo(db)
	since := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	cols := []string{"id", "organization_id", "platform", "status", "scheduled_at",
		"engagement_rate", "clicks", "impressions"}
	mock.ExpectQuery("FROM scheduled_posts").
		WithArgs(orgID, since, "linkedin").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p1", orgID, "linkedin", "published", since.Add(time.Hour), 0.04, 12.0, 300.0).
			AddRow("p2", orgID, "linkedin", "published", since.Add(2*time.Hour), nil, nil, nil))

	posts, err := repo.PublishedPosts(context.Background(), orgID, "linkedin", since)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.NotNil(t, posts[0].EngagementRate)
	assert.Equal(t, 0.04, *posts[0].EngagementRate)
	assert.Nil(t, posts[1].EngagementRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepo_Embedding(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewContentRepo(db)

	mock.ExpectQuery("SELECT vector FROM embeddings").
		WithArgs("campaign", "c1", orgID).
		WillReturnRows(sqlmock.NewRows([]string{"vector"}).AddRow("{0.5,1,-0.25}"))
	mock.ExpectQuery("SELECT vector FROM embeddings").
		WithArgs("content", "x9", orgID).
		WillReturnRows(sqlmock.NewRows([]string{"vector"}).AddRow(nil))
	mock.ExpectQuery("SELECT vector FROM embeddings").
		WithArgs("creative", "k1", orgID).
		WillReturnError(sql.ErrNoRows)

	it, err := repo.Embedding(context.Background(), orgID, domain.ReferenceCampaign, "c1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1, -0.25}, it.Vector)

	_, err = repo.Embedding(context.Background(), orgID, domain.ReferenceContent, "x9")
	assert.ErrorIs(t, err, insights.ErrReferenceNotFound, "null vector")

	_, err = repo.Embedding(context.Background(), orgID, domain.ReferenceCreative, "k1")
	assert.ErrorIs(t, err, insights.ErrReferenceNotFound)
}

func TestContentRepo_PublishedContent(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := postgres.NewContentRepo(db)

	cols := []string{"entity_id", "vector", "title", "content_type", "avg_engagement",
		"avg_impressions", "avg_clicks", "total_impressions"}
	mock.ExpectQuery("FROM embeddings e").
		WithArgs("content", orgID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("x1", "{1,0}", "Launch post", "article", 0.12, 450.0, 30.0, 900.0))

	items, err := repo.PublishedContent(context.Background(), orgID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.ReferenceContent, items[0].Type)
	assert.Equal(t, "Launch post", items[0].Title)
	assert.Equal(t, int64(900), items[0].TotalImpressions)
	assert.Equal(t, []float64{1, 0}, items[0].Vector)
}
