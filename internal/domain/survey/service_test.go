package survey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/survey-dashboard/pkg/errors"
)

type stubSource struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, ref SourceRef) ([]byte, error)
}

func (s *stubSource) Fetch(ctx context.Context, ref SourceRef) ([]byte, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fetchFn(ctx, ref)
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubStore struct {
	mu    sync.Mutex
	views map[string]ScoreView
	ttls  map[string]time.Duration
	getFn func(key string) (ScoreView, bool, error)
}

func newStubStore() *stubStore {
	return &stubStore{views: map[string]ScoreView{}, ttls: map[string]time.Duration{}}
}

func (s *stubStore) Get(_ context.Context, key string) (ScoreView, bool, error) {
	if s.getFn != nil {
		return s.getFn(key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.views[key]
	return view, ok, nil
}

func (s *stubStore) Save(_ context.Context, key string, view ScoreView, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[key] = view
	s.ttls[key] = ttl
	return nil
}

func newServiceUnderTest(t *testing.T, src Source, store ScoreStore) Service {
	t.Helper()
	catalog := kantinCatalog(t)
	datasets := []Dataset{
		{Name: "kampus", Source: SourceRef{Driver: "file", Location: "data/kampus.csv"}, Catalog: catalog},
		{Name: "2024", Source: SourceRef{Driver: "file", Location: "data/2024.csv"}, Catalog: catalog},
	}
	cfg := Config{
		DefaultDataset: "kampus",
		FuzzyThreshold: DefaultFuzzyThreshold,
		Program:        DefaultProgramRules(),
		ScoreTTL:       time.Minute,
	}
	return NewService(cfg, datasets, src, store, newTestLogger())
}

func sampleSource() *stubSource {
	return &stubSource{fetchFn: func(context.Context, SourceRef) ([]byte, error) {
		return []byte(sampleCSV), nil
	}}
}

func TestServiceDatasets(t *testing.T) {
	svc := newServiceUnderTest(t, sampleSource(), nil)
	infos := svc.Datasets(context.Background())
	require.Len(t, infos, 2)
	require.Equal(t, "kampus", infos[0].Name)
	require.True(t, infos[0].Default)
	require.False(t, infos[1].Default)
	require.Equal(t, []string{"Kantin", "Perpustakaan"}, infos[0].Categories)
}

func TestServiceCategoryScoresLoadsOnce(t *testing.T) {
	src := sampleSource()
	store := newStubStore()
	svc := newServiceUnderTest(t, src, store)
	ctx := context.Background()

	resp, err := svc.CategoryScores(ctx, CategoryRequest{Dataset: "kampus"})
	require.NoError(t, err)
	require.False(t, resp.Cached)
	require.Equal(t, 4, resp.Respondents)
	require.False(t, resp.NoData)
	require.Len(t, resp.Categories, 2)
	// Harga (4,3,5) = 4, Menu (5,2,4) = 11/3
	require.InDelta(t, (4.0+11.0/3.0)/2, *resp.Categories[0].Mean, 1e-9)
	require.Nil(t, resp.Categories[1].Mean)

	again, err := svc.CategoryScores(ctx, CategoryRequest{Dataset: ""})
	require.NoError(t, err)
	require.True(t, again.Cached)
	require.Equal(t, resp.Categories[0].Mean, again.Categories[0].Mean)

	require.Equal(t, 1, src.Calls())
	require.Len(t, store.views, 1)
	for _, ttl := range store.ttls {
		require.Equal(t, time.Minute, ttl)
	}
}

func TestServiceFilterAliases(t *testing.T) {
	svc := newServiceUnderTest(t, sampleSource(), nil)

	resp, err := svc.CategoryScores(context.Background(), CategoryRequest{
		Filters: Filters{"gender": GenderFemale, "status": AllValue},
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Respondents)
	// Harga (3) = 3, Menu (2) = 2
	require.InDelta(t, 2.5, *resp.Categories[0].Mean, 1e-9)

	resp, err = svc.CategoryScores(context.Background(), CategoryRequest{
		Filters: Filters{"program": "PGSD", "Status Anda": "Dosen"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Respondents)
}

func TestServiceNoDataState(t *testing.T) {
	svc := newServiceUnderTest(t, sampleSource(), newStubStore())

	resp, err := svc.CategoryScores(context.Background(), CategoryRequest{Filters: Filters{"age": "99-100"}})
	require.NoError(t, err)
	require.True(t, resp.NoData)
	require.Zero(t, resp.Respondents)
	require.Len(t, resp.Categories, 2)
	for _, c := range resp.Categories {
		require.Nil(t, c.Mean)
	}
}

func TestServiceQuestionScores(t *testing.T) {
	svc := newServiceUnderTest(t, sampleSource(), newStubStore())
	ctx := context.Background()

	resp, err := svc.QuestionScores(ctx, QuestionRequest{Category: "Kantin"})
	require.NoError(t, err)
	require.Equal(t, "Kantin", resp.Category)
	require.Equal(t, []string{"Area makan nyaman"}, resp.Missing)
	require.Len(t, resp.Questions, 2)
	require.Equal(t, "Harga terjangkau.", resp.Questions[0].Label)
	require.Equal(t, "Menu cukup bervariasi.", resp.Questions[1].Label)

	catalogOrder, err := svc.QuestionScores(ctx, QuestionRequest{Category: "Kantin", Sort: "catalog"})
	require.NoError(t, err)
	require.False(t, catalogOrder.Cached)
	require.Equal(t, "Menu cukup bervariasi.", catalogOrder.Questions[0].Label)

	cached, err := svc.QuestionScores(ctx, QuestionRequest{Category: "Kantin", Sort: "CATALOG"})
	require.NoError(t, err)
	require.True(t, cached.Cached)

	empty, err := svc.QuestionScores(ctx, QuestionRequest{Category: "Perpustakaan"})
	require.NoError(t, err)
	require.Empty(t, empty.Questions)
	require.Equal(t, []string{"Suasana perpustakaan kondusif"}, empty.Missing)
}

func TestServiceQuestionScoresValidation(t *testing.T) {
	svc := newServiceUnderTest(t, sampleSource(), nil)
	ctx := context.Background()

	_, err := svc.QuestionScores(ctx, QuestionRequest{Category: " "})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.QuestionScores(ctx, QuestionRequest{Category: "Kantin", Sort: "sideways"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.QuestionScores(ctx, QuestionRequest{Category: "Olahraga"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = svc.QuestionScores(ctx, QuestionRequest{Dataset: "1999", Category: "Kantin"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestServiceSourceFailureIsRetriedNextCall(t *testing.T) {
	fail := true
	src := &stubSource{fetchFn: func(context.Context, SourceRef) ([]byte, error) {
		if fail {
			return nil, errors.New("connection reset")
		}
		return []byte(sampleCSV), nil
	}}
	svc := newServiceUnderTest(t, src, nil)

	_, err := svc.FilterOptions(context.Background(), "kampus")
	require.True(t, apperrors.IsCode(err, apperrors.CodeSourceUnavailable))

	fail = false
	opts, err := svc.FilterOptions(context.Background(), "kampus")
	require.NoError(t, err)
	require.Equal(t, 4, opts.Respondents)
	require.Equal(t, 2, src.Calls())
}

func TestServiceFilterOptions(t *testing.T) {
	svc := newServiceUnderTest(t, sampleSource(), nil)

	opts, err := svc.FilterOptions(context.Background(), "default")
	require.NoError(t, err)
	require.Equal(t, "kampus", opts.Dataset)
	require.Equal(t, []string{AgeUnder20, Age20To30, Age31To40, AgeOver40}, opts.Ages)
	require.Equal(t, []string{GenderUnknown, GenderMale, GenderFemale}, opts.Genders)
	require.Equal(t, []string{"FKIP", "Informatika", "PGSD"}, opts.Programs)
	require.Equal(t, []string{"Dosen", "Mahasiswa", "Staf"}, opts.Statuses)
	require.Equal(t, "Usia_Normalized", opts.Columns["age"])
	require.Equal(t, "Status Anda", opts.Columns["status"])
}

func TestServiceZeroConfigUsesDefaultProgramRules(t *testing.T) {
	src := &stubSource{fetchFn: func(context.Context, SourceRef) ([]byte, error) {
		return []byte("Usia,Prodi,Harga terjangkau.\n19,ti,4\n22,si,3\n23,pendidikan guru sekolah dasar,5\n"), nil
	}}
	datasets := []Dataset{{Name: "kampus", Source: SourceRef{Driver: "file", Location: "data/kampus.csv"}, Catalog: kantinCatalog(t)}}
	svc := NewService(Config{}, datasets, src, nil, newTestLogger())

	opts, err := svc.FilterOptions(context.Background(), "kampus")
	require.NoError(t, err)
	require.Equal(t, []string{"PGSD", "SI", "TI"}, opts.Programs)
}

func TestServiceExplicitColumnFilterBeatsAlias(t *testing.T) {
	svc := newServiceUnderTest(t, sampleSource(), nil).(*service)
	for i := 0; i < 50; i++ {
		got := svc.columnFilters(Filters{
			"gender":                   GenderFemale,
			"Jenis Kelamin_Normalized": GenderMale,
			"status":                   "Dosen",
		})
		require.Equal(t, Filters{"Jenis Kelamin_Normalized": GenderMale, "Status Anda": "Dosen"}, got)
	}

	resp, err := svc.CategoryScores(context.Background(), CategoryRequest{
		Filters: Filters{"gender": GenderFemale, "Jenis Kelamin_Normalized": GenderMale},
	})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Respondents)
}

func TestServiceDatasetsAreIsolated(t *testing.T) {
	src := sampleSource()
	svc := newServiceUnderTest(t, src, nil)
	ctx := context.Background()

	_, err := svc.Table(ctx, "kampus")
	require.NoError(t, err)
	_, err = svc.Table(ctx, "2024")
	require.NoError(t, err)
	_, err = svc.Table(ctx, "kampus")
	require.NoError(t, err)
	require.Equal(t, 2, src.Calls())
}

func TestServiceReload(t *testing.T) {
	content := sampleCSV
	src := &stubSource{fetchFn: func(context.Context, SourceRef) ([]byte, error) {
		return []byte(content), nil
	}}
	store := newStubStore()
	svc := newServiceUnderTest(t, src, store)
	ctx := context.Background()

	before, err := svc.CategoryScores(ctx, CategoryRequest{})
	require.NoError(t, err)
	require.Equal(t, 4, before.Respondents)

	content = sampleCSV + "22,L,pgsd,Mahasiswa,1,1\n"
	status, err := svc.Reload(ctx, "kampus")
	require.NoError(t, err)
	require.Equal(t, "kampus", status.Dataset)
	require.Equal(t, 5, status.Rows)
	require.Len(t, status.Fingerprint, 64)
	require.Equal(t, 2, src.Calls())

	after, err := svc.CategoryScores(ctx, CategoryRequest{})
	require.NoError(t, err)
	require.False(t, after.Cached)
	require.Equal(t, 5, after.Respondents)

	_, err = svc.Reload(ctx, "nope")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestServiceScoreStoreErrorsAreNotFatal(t *testing.T) {
	store := newStubStore()
	store.getFn = func(string) (ScoreView, bool, error) {
		return ScoreView{}, false, errors.New("valkey down")
	}
	svc := newServiceUnderTest(t, sampleSource(), store)

	resp, err := svc.CategoryScores(context.Background(), CategoryRequest{})
	require.NoError(t, err)
	require.Equal(t, 4, resp.Respondents)
}

func TestScoreKeyIsOrderIndependent(t *testing.T) {
	a := scoreKey("kampus", "fp", "categories", "", "", Filters{"x": "1", "y": "2", "z": AllValue})
	b := scoreKey("kampus", "fp", "categories", "", "", Filters{"y": "2", "x": "1"})
	require.Equal(t, a, b)

	c := scoreKey("kampus", "other", "categories", "", "", Filters{"y": "2", "x": "1"})
	require.NotEqual(t, a, c)
}
