package survey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"
	"time"

	apperrors "github.com/yanqian/survey-dashboard/pkg/errors"
)

// Service exposes the dashboard's data operations.
type Service interface {
	Datasets(ctx context.Context) []DatasetInfo
	Table(ctx context.Context, dataset string) (*Table, error)
	FilterOptions(ctx context.Context, dataset string) (FilterOptions, error)
	CategoryScores(ctx context.Context, req CategoryRequest) (CategoryScoresResponse, error)
	QuestionScores(ctx context.Context, req QuestionRequest) (QuestionScoresResponse, error)
	Reload(ctx context.Context, dataset string) (DatasetStatus, error)
}

type service struct {
	cfg      Config
	datasets map[string]Dataset
	order    []string
	source   Source
	store    ScoreStore
	cache    *TableCache
	loader   *Loader
	agg      Aggregator
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires up the survey domain.
func NewService(cfg Config, datasets []Dataset, source Source, store ScoreStore, logger *slog.Logger) Service {
	cfg.Fields = cfg.Fields.withDefaults()
	cfg.Program = cfg.Program.withDefaults()
	matcher := NewMatcher(cfg.FuzzyThreshold)
	s := &service{
		cfg:      cfg,
		datasets: make(map[string]Dataset, len(datasets)),
		order:    make([]string, 0, len(datasets)),
		source:   source,
		store:    store,
		cache:    NewTableCache(),
		loader:   NewLoader(cfg.Fields, cfg.Program, matcher, logger),
		agg:      NewAggregator(matcher),
		logger:   logger.With("component", "survey.service"),
		now:      time.Now,
	}
	for _, ds := range datasets {
		if _, dup := s.datasets[ds.Name]; dup {
			continue
		}
		s.datasets[ds.Name] = ds
		s.order = append(s.order, ds.Name)
	}
	if s.cfg.DefaultDataset == "" && len(s.order) > 0 {
		s.cfg.DefaultDataset = s.order[0]
	}
	return s
}

func (s *service) Datasets(_ context.Context) []DatasetInfo {
	out := make([]DatasetInfo, 0, len(s.order))
	for _, name := range s.order {
		ds := s.datasets[name]
		out = append(out, DatasetInfo{
			Name:       ds.Name,
			Default:    ds.Name == s.cfg.DefaultDataset,
			Driver:     ds.Source.Driver,
			Categories: ds.Catalog.Names(),
		})
	}
	return out
}

func (s *service) Table(ctx context.Context, dataset string) (*Table, error) {
	ds, err := s.dataset(dataset)
	if err != nil {
		return nil, err
	}
	return s.table(ctx, ds)
}

func (s *service) FilterOptions(ctx context.Context, dataset string) (FilterOptions, error) {
	ds, err := s.dataset(dataset)
	if err != nil {
		return FilterOptions{}, err
	}
	table, err := s.table(ctx, ds)
	if err != nil {
		return FilterOptions{}, err
	}
	f := s.cfg.Fields
	ageCol := NormalizedColumn(f.Age)
	genderCol := NormalizedColumn(f.Gender)
	programCol := NormalizedColumn(f.Program)

	ages := table.Distinct(ageCol)
	sort.SliceStable(ages, func(i, j int) bool {
		ki, kj := AgeSortKey(ages[i]), AgeSortKey(ages[j])
		if ki != kj {
			return ki < kj
		}
		return ages[i] < ages[j]
	})

	columns := map[string]string{}
	if table.HasColumn(ageCol) {
		columns["age"] = ageCol
	}
	if table.HasColumn(genderCol) {
		columns["gender"] = genderCol
	}
	if table.HasColumn(programCol) {
		columns["program"] = programCol
	}
	if table.HasColumn(f.Status) {
		columns["status"] = f.Status
	}

	return FilterOptions{
		Dataset:     ds.Name,
		Respondents: table.Len(),
		Ages:        ages,
		Genders:     table.Distinct(genderCol),
		Programs:    table.Distinct(programCol),
		Statuses:    table.Distinct(f.Status),
		Columns:     columns,
	}, nil
}

func (s *service) CategoryScores(ctx context.Context, req CategoryRequest) (CategoryScoresResponse, error) {
	ds, err := s.dataset(req.Dataset)
	if err != nil {
		return CategoryScoresResponse{}, err
	}
	table, err := s.table(ctx, ds)
	if err != nil {
		return CategoryScoresResponse{}, err
	}

	filters := s.columnFilters(req.Filters)
	key := scoreKey(ds.Name, table.Fingerprint, "categories", "", "", filters)
	if view, ok := s.cachedView(ctx, key); ok {
		return CategoryScoresResponse{
			Dataset:     ds.Name,
			Respondents: view.Respondents,
			NoData:      view.NoData,
			Categories:  view.Categories,
			Cached:      true,
		}, nil
	}

	filtered := table.Filter(filters)
	scores := s.agg.CategoryMeans(filtered, ds.Catalog, nil)
	view := ScoreView{
		Dataset:     ds.Name,
		Fingerprint: table.Fingerprint,
		Respondents: filtered.Len(),
		NoData:      filtered.Len() == 0,
		Categories:  scores,
		ComputedAt:  s.now(),
	}
	s.saveView(ctx, key, view)

	return CategoryScoresResponse{
		Dataset:     ds.Name,
		Respondents: view.Respondents,
		NoData:      view.NoData,
		Categories:  scores,
	}, nil
}

func (s *service) QuestionScores(ctx context.Context, req QuestionRequest) (QuestionScoresResponse, error) {
	name := strings.TrimSpace(req.Category)
	if name == "" {
		return QuestionScoresResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "category cannot be empty", nil)
	}
	order := strings.ToLower(strings.TrimSpace(req.Sort))
	if err := SortQuestionScores(nil, order); err != nil {
		return QuestionScoresResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid sort order", err)
	}
	ds, err := s.dataset(req.Dataset)
	if err != nil {
		return QuestionScoresResponse{}, err
	}
	category, ok := ds.Catalog.Category(name)
	if !ok {
		return QuestionScoresResponse{}, apperrors.Wrap(apperrors.CodeNotFound, "unknown category "+name, nil)
	}
	table, err := s.table(ctx, ds)
	if err != nil {
		return QuestionScoresResponse{}, err
	}

	filters := s.columnFilters(req.Filters)
	key := scoreKey(ds.Name, table.Fingerprint, "questions", category.Name, order, filters)
	if view, ok := s.cachedView(ctx, key); ok {
		return QuestionScoresResponse{
			Dataset:     ds.Name,
			Category:    category.Name,
			Respondents: view.Respondents,
			NoData:      view.NoData,
			Questions:   view.Questions,
			Missing:     nonNil(view.Missing),
			Cached:      true,
		}, nil
	}

	filtered := table.Filter(filters)
	scores, missing := s.agg.QuestionMeans(filtered, category.Questions, nil)
	_ = SortQuestionScores(scores, order)
	view := ScoreView{
		Dataset:     ds.Name,
		Fingerprint: table.Fingerprint,
		Respondents: filtered.Len(),
		NoData:      filtered.Len() == 0,
		Category:    category.Name,
		Questions:   scores,
		Missing:     missing,
		ComputedAt:  s.now(),
	}
	s.saveView(ctx, key, view)

	return QuestionScoresResponse{
		Dataset:     ds.Name,
		Category:    category.Name,
		Respondents: view.Respondents,
		NoData:      view.NoData,
		Questions:   scores,
		Missing:     nonNil(missing),
	}, nil
}

func (s *service) Reload(ctx context.Context, dataset string) (DatasetStatus, error) {
	ds, err := s.dataset(dataset)
	if err != nil {
		return DatasetStatus{}, err
	}
	s.cache.Invalidate(cacheKey(ds))
	table, err := s.table(ctx, ds)
	if err != nil {
		return DatasetStatus{}, err
	}
	s.logger.Info("survey dataset reloaded", "dataset", ds.Name, "fingerprint", table.Fingerprint)
	return DatasetStatus{
		Dataset:     ds.Name,
		Rows:        table.Len(),
		Columns:     len(table.Columns),
		Encoding:    table.Encoding,
		Fingerprint: table.Fingerprint,
		LoadedAt:    s.now(),
	}, nil
}

func (s *service) dataset(name string) (Dataset, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "default" {
		name = s.cfg.DefaultDataset
	}
	ds, ok := s.datasets[name]
	if !ok {
		return Dataset{}, apperrors.Wrap(apperrors.CodeNotFound, "unknown dataset "+name, nil)
	}
	return ds, nil
}

func (s *service) table(ctx context.Context, ds Dataset) (*Table, error) {
	table, err := s.cache.Get(ctx, cacheKey(ds), func(ctx context.Context) (*Table, error) {
		return s.loader.Load(ctx, s.source, ds)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSourceUnavailable, "failed to load dataset "+ds.Name, err)
	}
	return table, nil
}

// columnFilters lets callers use the short names from FilterOptions.Columns
// as filter keys. A key naming the column itself beats its short alias.
func (s *service) columnFilters(filters Filters) Filters {
	f := s.cfg.Fields
	aliases := map[string]string{
		"age":     NormalizedColumn(f.Age),
		"gender":  NormalizedColumn(f.Gender),
		"program": NormalizedColumn(f.Program),
		"status":  f.Status,
	}
	out := make(Filters, len(filters))
	for col, value := range filters {
		if mapped, ok := aliases[col]; ok {
			if _, explicit := filters[mapped]; !explicit {
				out[mapped] = value
			}
			continue
		}
		out[col] = value
	}
	return out
}

func (s *service) cachedView(ctx context.Context, key string) (ScoreView, bool) {
	if s.store == nil {
		return ScoreView{}, false
	}
	view, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("score cache lookup failed", "error", err)
		return ScoreView{}, false
	}
	return view, ok
}

func (s *service) saveView(ctx context.Context, key string, view ScoreView) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, key, view, s.cfg.ScoreTTL); err != nil {
		s.logger.Warn("score cache save failed", "error", err)
	}
}

// cacheKey scopes a table to its dataset: the catalog decides which columns
// are coerced, so two datasets over one source keep separate tables.
func cacheKey(ds Dataset) string {
	return ds.Name + "|" + ds.Source.Key()
}

// scoreKey derives a stable cache key from everything that shapes a view.
func scoreKey(dataset, fingerprint, kind, category, order string, filters Filters) string {
	active := filters.Active()
	cols := make([]string, 0, len(active))
	for col := range active {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	h := sha256.New()
	for _, part := range []string{fingerprint, kind, category, order} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, col := range cols {
		h.Write([]byte(col))
		h.Write([]byte{1})
		h.Write([]byte(active[col]))
		h.Write([]byte{0})
	}
	return dataset + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
