package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	pkgError "github.com/AzielCF/az-insights/pkg/error"
	"github.com/AzielCF/az-insights/pkg/jobworker"
	domain "github.com/AzielCF/az-insights/research/domain"
	"github.com/AzielCF/az-insights/research/repository"
)

// keywordEmbedder maps text onto three topic axes so similarity is predictable.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, domain.EmbeddingUsage, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		t = strings.ToLower(t)
		vec := []float32{0.01, 0.01, 0.01}
		for axis, word := range []string{"price", "setup", "speed"} {
			if strings.Contains(t, word) {
				vec[axis] = 1
			}
		}
		out[i] = vec
	}
	return out, domain.EmbeddingUsage{Requests: 1}, nil
}

func (keywordEmbedder) Dimensions() int { return 3 }
func (keywordEmbedder) Model() string   { return "keywords" }

// syncDispatcher runs jobs inline.
type syncDispatcher struct {
	mu   sync.Mutex
	keys []string
	errs []error
}

func (d *syncDispatcher) TryDispatch(job jobworker.Job) bool {
	err := job.Handler(context.Background())
	d.mu.Lock()
	d.keys = append(d.keys, job.Key)
	d.errs = append(d.errs, err)
	d.mu.Unlock()
	return true
}

type researchFixture struct {
	store   *repository.ResearchGormRepository
	ingest  *IngestService
	search  *SearchService
	manager *ContextManager
	jobs    *syncDispatcher
}

func newResearchFixture(t *testing.T) researchFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewResearchGormRepository(db)
	require.NoError(t, store.InitSchema(context.Background()))

	embeddings := NewEmbeddingService(keywordEmbedder{}, repository.NewMemoryEmbeddingCache(100, time.Hour), nil, 0)
	manager := newTestManager(8000, 1000)
	jobs := &syncDispatcher{}

	return researchFixture{
		store:   store,
		ingest:  NewIngestService(store, embeddings, jobs),
		search:  NewSearchService(store, embeddings, manager),
		manager: manager,
		jobs:    jobs,
	}
}

func TestIngestService_SubmitEmbedsRecord(t *testing.T) {
	f := newResearchFixture(t)
	ctx := context.Background()

	res, err := f.ingest.SubmitInsight(ctx, domain.SubmitInsightRequest{Description: "  Setup is painful ", Context: "trial users"})
	require.NoError(t, err)
	assert.True(t, res.Embedded)
	assert.Equal(t, domain.ContentInsight, res.ContentType)
	require.Len(t, f.jobs.keys, 1)
	assert.Equal(t, "insight:"+res.ID, f.jobs.keys[0])
	assert.NoError(t, f.jobs.errs[0])

	rec, err := f.ingest.Get(ctx, domain.ContentInsight, res.ID)
	require.NoError(t, err)
	assert.True(t, rec.HasVector)
	assert.Equal(t, "Setup is painful Context: trial users", rec.Text)
}

func TestIngestService_ValidationFailsBeforeStore(t *testing.T) {
	f := newResearchFixture(t)

	_, err := f.ingest.SubmitMetric(context.Background(), domain.SubmitMetricRequest{})
	var ve pkgError.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, f.jobs.keys)
}

func TestIngestService_SubmitHTMLDocument(t *testing.T) {
	f := newResearchFixture(t)
	ctx := context.Background()

	res, err := f.ingest.SubmitDocument(ctx, domain.SubmitDocumentRequest{
		Title:   "Interview",
		Content: "<html><body><p>Setup is slow</p><script>x()</script></body></html>",
		Format:  domain.DocumentFormatHTML,
	})
	require.NoError(t, err)

	rec, err := f.ingest.Get(ctx, domain.ContentDocument, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Setup is slow", rec.Text)

	_, err = f.ingest.SubmitDocument(ctx, domain.SubmitDocumentRequest{
		Title:   "Empty",
		Content: "<html><body><script>x()</script></body></html>",
		Format:  domain.DocumentFormatHTML,
	})
	var ve pkgError.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestIngestService_WithoutDispatcher(t *testing.T) {
	f := newResearchFixture(t)
	f.ingest.jobs = nil
	ctx := context.Background()

	res, err := f.ingest.SubmitJTBD(ctx, domain.SubmitJTBDRequest{Statement: "Compare price plans"})
	require.NoError(t, err)
	assert.False(t, res.Embedded)

	f.ingest.jobs = f.jobs
	n, err := f.ingest.Reindex(ctx, domain.ContentJTBD)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.ingest.Reindex(ctx, domain.ContentJTBD)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "already embedded records are skipped")
}

func TestSearchService_MergesAcrossTypes(t *testing.T) {
	f := newResearchFixture(t)
	ctx := context.Background()

	price, err := f.ingest.SubmitInsight(ctx, domain.SubmitInsightRequest{Description: "Price is unclear"})
	require.NoError(t, err)
	_, err = f.ingest.SubmitInsight(ctx, domain.SubmitInsightRequest{Description: "Setup takes a week"})
	require.NoError(t, err)
	job, err := f.ingest.SubmitJTBD(ctx, domain.SubmitJTBDRequest{Statement: "Know the price before buying"})
	require.NoError(t, err)
	_, err = f.ingest.SubmitMetric(ctx, domain.SubmitMetricRequest{Name: "Page speed"})
	require.NoError(t, err)

	results, err := f.search.Search(ctx, domain.SearchRequest{Query: "price", Threshold: 0.9})
	require.NoError(t, err)
	require.Len(t, results, 2)
	ids := []string{results[0].ID, results[1].ID}
	assert.ElementsMatch(t, []string{price.ID, job.ID}, ids)

	onlyJobs, err := f.search.Search(ctx, domain.SearchRequest{Query: "price", Types: []string{"jtbd"}, Threshold: 0.9})
	require.NoError(t, err)
	require.Len(t, onlyJobs, 1)
	assert.Equal(t, job.ID, onlyJobs[0].ID)

	limited, err := f.search.Search(ctx, domain.SearchRequest{Query: "price", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSearchService_RejectsInvalidRequest(t *testing.T) {
	f := newResearchFixture(t)

	_, err := f.search.Search(context.Background(), domain.SearchRequest{Query: ""})
	var ve pkgError.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSearchService_SelectRecord(t *testing.T) {
	f := newResearchFixture(t)
	ctx := context.Background()

	res, err := f.ingest.SubmitMetric(ctx, domain.SubmitMetricRequest{Name: "Activation", CurrentValue: domain.Float(0.4)})
	require.NoError(t, err)

	sel, err := f.search.SelectRecord(ctx, domain.ContentMetric, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemTypeMetric, sel.ItemType)
	assert.True(t, f.manager.IsSelected(domain.ItemTypeMetric, res.ID))

	doc, err := f.ingest.SubmitDocument(ctx, domain.SubmitDocumentRequest{Title: "Notes", Content: "raw"})
	require.NoError(t, err)
	_, err = f.search.SelectRecord(ctx, domain.ContentDocument, doc.ID)
	assert.Error(t, err)

	_, err = f.search.SelectRecord(ctx, domain.ContentInsight, "missing")
	var nf pkgError.NotFoundError
	assert.ErrorAs(t, err, &nf)
}
