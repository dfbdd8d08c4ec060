package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/unihub-events/internal/embedding"
	"github.com/Shivanand-hulikatti/unihub-events/internal/model"
	"github.com/Shivanand-hulikatti/unihub-events/internal/repository"
	"github.com/Shivanand-hulikatti/unihub-events/internal/search"
)

// CollegeService manages colleges.
type CollegeService struct {
	store    repository.Store
	embedder embedding.Provider
	log      *zap.Logger
}

// NewCollegeService constructs a CollegeService.
func NewCollegeService(store repository.Store, embedder embedding.Provider, log *zap.Logger) *CollegeService {
	return &CollegeService{store: store, embedder: embedder, log: log}
}

// Create stores a college with the embedding of its name.
func (s *CollegeService) Create(ctx context.Context, req model.CreateCollegeRequest) (*model.College, error) {
	name := strings.TrimSpace(req.Name)
	location := strings.TrimSpace(req.Location)
	if name == "" {
		return nil, invalid("name", "college name is required")
	}
	if location == "" {
		return nil, invalid("location", "location is required")
	}

	vec, err := embed(ctx, s.embedder, embedding.CollegeText(name))
	if err != nil {
		return nil, err
	}

	c := &model.College{
		ID:        uuid.NewString(),
		Name:      name,
		Location:  location,
		Thumbnail: req.Thumbnail,
		Embedding: vec,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.InsertCollege(ctx, c)
	}); err != nil {
		return nil, fmt.Errorf("create college: %w", err)
	}

	s.log.Info("college created", zap.String("college_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

// List returns all colleges ordered by name.
func (s *CollegeService) List(ctx context.Context) ([]model.College, error) {
	return s.store.ListColleges(ctx)
}

// Search returns one page of colleges ordered by name.
func (s *CollegeService) Search(ctx context.Context, req model.CollegeSearchRequest) (*model.SearchedCollegesResponse, error) {
	if _, err := search.CollegeSort(req.SortBy); err != nil {
		return nil, err
	}
	after, err := search.DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	var vec []float32
	if text := strings.TrimSpace(req.SearchQuery); text != "" {
		if vec, err = embed(ctx, s.embedder, text); err != nil {
			return nil, err
		}
	}

	q, err := search.NewCollegeQuery(search.CollegeFilter{Location: strings.TrimSpace(req.Location)}, vec, req.Limit, after)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.SearchColleges(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search colleges: %w", err)
	}

	resp := &model.SearchedCollegesResponse{Colleges: hits}
	if resp.Colleges == nil {
		resp.Colleges = []model.ScoredCollege{}
	}
	if n := len(hits); n > 0 {
		last := hits[n-1]
		resp.NextCursor, resp.HasNext = q.NextCursor(n, search.CollegeRow(last.College), last.Distance)
	}
	return resp, nil
}
