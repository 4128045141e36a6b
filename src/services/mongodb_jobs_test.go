package services

import (
	"context"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joeg-ita/jobdrop/src/config"
	"github.com/joeg-ita/jobdrop/src/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestTitleFilter(t *testing.T) {
	t.Run("empty query matches everything", func(t *testing.T) {
		assert.Empty(t, TitleFilter(""))
	})

	t.Run("query is escaped and case-insensitive", func(t *testing.T) {
		filter := TitleFilter("C++ (senior)")
		require.Len(t, filter, 1)
		assert.Equal(t, "jobTitle", filter[0].Key)

		re, ok := filter[0].Value.(bson.Regex)
		require.True(t, ok)
		assert.Equal(t, "i", re.Options)
		assert.Equal(t, `C\+\+ \(senior\)`, re.Pattern)

		compiled := regexp.MustCompile("(?" + re.Options + ")" + re.Pattern)
		assert.True(t, compiled.MatchString("Lead c++ (Senior) engineer"))
		assert.False(t, compiled.MatchString("C developer senior"))
	})

	t.Run("metacharacters are literal", func(t *testing.T) {
		re := TitleFilter(".*")[0].Value.(bson.Regex)
		compiled := regexp.MustCompile("(?i)" + re.Pattern)
		assert.False(t, compiled.MatchString("Plumbing Repair"))
		assert.True(t, compiled.MatchString("glob .* matcher"))
	})

	t.Run("nul bytes are escaped so the filter marshals", func(t *testing.T) {
		filter := TitleFilter("a\x00b")

		_, err := bson.Marshal(filter)
		require.NoError(t, err)

		re := filter[0].Value.(bson.Regex)
		assert.Equal(t, `a\x00b`, re.Pattern)
		compiled := regexp.MustCompile("(?i)" + re.Pattern)
		assert.True(t, compiled.MatchString("A\x00B job"))
		assert.False(t, compiled.MatchString("ab"))
	})
}

// Integration tests below need a MongoDB reachable at JOBDROP_TEST_MONGO_URL.
func setupTestDB(t *testing.T) *MongodbJobs {
	t.Helper()
	url := os.Getenv("JOBDROP_TEST_MONGO_URL")
	if url == "" {
		t.Skip("JOBDROP_TEST_MONGO_URL not set")
	}

	cfg := config.Database{
		Url:            url,
		DB:             "test_jobdrop",
		JobsCollection: "test_jobs_" + strings.ReplaceAll(uuid.New().String()[:8], "-", ""),
	}

	mongodbClient, err := NewMongodbClient(cfg)
	require.NoError(t, err)
	db, err := NewMongodbJobs(mongodbClient, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx := context.Background()
		_ = mongodbClient.GetClient().Database(cfg.DB).Collection(cfg.JobsCollection).Drop(ctx)
		mongodbClient.Close(ctx)
	})

	return db
}

func newRecord(t *testing.T, title string) domain.JobRecord {
	t.Helper()
	job, err := domain.NewJobRecord(domain.JobSubmission{
		JobTitle: title,
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		FileData: []byte{0xAA, 0xBB},
		FileType: "application/pdf",
	}, "https://res.example.com/job-uploads/"+uuid.New().String())
	require.NoError(t, err)
	return job
}

func TestCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	order := 150.5
	job := newRecord(t, "Plumbing Repair")
	job.OrderValue = &order

	id, err := db.Create(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, job.ID, id)

	saved, err := db.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Plumbing Repair", saved.JobTitle)
	assert.Equal(t, []byte{0xAA, 0xBB}, saved.FileData)
	assert.Equal(t, "application/pdf", saved.FileType)
	assert.Equal(t, job.FileURL, saved.FileURL)
	require.NotNil(t, saved.OrderValue)
	assert.Equal(t, 150.5, *saved.OrderValue)
	assert.True(t, job.Date.Equal(saved.Date))

	t.Run("should not insert the same id twice", func(t *testing.T) {
		_, err := db.Create(ctx, job)
		assert.Error(t, err)
	})

	t.Run("should report unknown ids as not found", func(t *testing.T) {
		_, err := db.Get(ctx, uuid.New().String())
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
		_, err = db.Get(ctx, "")
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})

	t.Run("should find records by file url", func(t *testing.T) {
		ok, err := db.ExistsByFileURL(ctx, job.FileURL)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.ExistsByFileURL(ctx, "https://res.example.com/missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSearchByTitle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, title := range []string{"Electrical Install", "electrical Survey", "Plumbing Repair", "C++ Developer"} {
		_, err := db.Create(ctx, newRecord(t, title))
		require.NoError(t, err)
	}

	titles := func(jobs []domain.JobRecord) []string {
		out := make([]string, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, j.JobTitle)
		}
		return out
	}

	t.Run("should match case-insensitively", func(t *testing.T) {
		for _, q := range []string{"electrical", "ELECTRICAL", "Electrical", "lectric"} {
			jobs, err := db.SearchByTitle(ctx, q)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"Electrical Install", "electrical Survey"}, titles(jobs), q)
		}
	})

	t.Run("should return every record for an empty query", func(t *testing.T) {
		jobs, err := db.SearchByTitle(ctx, "")
		require.NoError(t, err)
		assert.Len(t, jobs, 4)
	})

	t.Run("should return an empty slice when nothing matches", func(t *testing.T) {
		jobs, err := db.SearchByTitle(ctx, "carpentry")
		require.NoError(t, err)
		assert.NotNil(t, jobs)
		assert.Empty(t, jobs)
	})

	t.Run("should treat metacharacters literally", func(t *testing.T) {
		jobs, err := db.SearchByTitle(ctx, "c++")
		require.NoError(t, err)
		assert.Equal(t, []string{"C++ Developer"}, titles(jobs))

		jobs, err = db.SearchByTitle(ctx, ".*")
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})
}
