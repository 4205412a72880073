package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// MovieInput is the editable part of a movie plus its credits.
type MovieInput struct {
	Title       string
	Description string
	DurationMin int
	ReleaseDate *time.Time
	GenreIDs    []uint64
	ActorIDs    []uint64
}

type CatalogService struct {
	store CatalogStore
	log   logrus.FieldLogger
}

func NewCatalogService(store CatalogStore, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{store: store, log: log}
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Invalid("name", "name is required")
	}
	return name, nil
}

func (s *CatalogService) ListGenres(ctx context.Context) ([]model.Genre, error) {
	return s.store.ListGenres(ctx)
}

func (s *CatalogService) GetGenre(ctx context.Context, id uint64) (model.Genre, error) {
	g, err := s.store.GetGenre(ctx, id)
	return g, translate(err, "genre not found")
}

func (s *CatalogService) CreateGenre(ctx context.Context, name string) (model.Genre, error) {
	name, err := requireName(name)
	if err != nil {
		return model.Genre{}, err
	}
	g := model.Genre{Name: name}
	return g, translate(s.store.CreateGenre(ctx, &g), "genre already exists")
}

func (s *CatalogService) UpdateGenre(ctx context.Context, id uint64, name string) (model.Genre, error) {
	name, err := requireName(name)
	if err != nil {
		return model.Genre{}, err
	}
	g := model.Genre{ID: id, Name: name}
	if err := s.store.UpdateGenre(ctx, &g); err != nil {
		if errorsIsNotFound(err) {
			return g, translate(err, "genre not found")
		}
		return g, translate(err, "genre already exists")
	}
	return g, nil
}

func (s *CatalogService) DeleteGenre(ctx context.Context, id uint64) error {
	return translate(s.store.DeleteGenre(ctx, id), "genre not found")
}

func (s *CatalogService) ListActors(ctx context.Context) ([]model.Actor, error) {
	return s.store.ListActors(ctx)
}

func (s *CatalogService) GetActor(ctx context.Context, id uint64) (model.Actor, error) {
	a, err := s.store.GetActor(ctx, id)
	return a, translate(err, "actor not found")
}

func (s *CatalogService) CreateActor(ctx context.Context, name string) (model.Actor, error) {
	name, err := requireName(name)
	if err != nil {
		return model.Actor{}, err
	}
	a := model.Actor{Name: name}
	return a, translate(s.store.CreateActor(ctx, &a), "actor already exists")
}

func (s *CatalogService) UpdateActor(ctx context.Context, id uint64, name string) (model.Actor, error) {
	name, err := requireName(name)
	if err != nil {
		return model.Actor{}, err
	}
	a := model.Actor{ID: id, Name: name}
	return a, translate(s.store.UpdateActor(ctx, &a), "actor not found")
}

func (s *CatalogService) DeleteActor(ctx context.Context, id uint64) error {
	return translate(s.store.DeleteActor(ctx, id), "actor not found")
}

func (s *CatalogService) ListMovies(ctx context.Context) ([]model.Movie, error) {
	return s.store.ListMovies(ctx)
}

func (s *CatalogService) GetMovie(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := s.store.GetMovie(ctx, id)
	return m, translate(err, "movie not found")
}

func validateMovie(in MovieInput) error {
	v := &ValidationError{Fields: map[string]string{}}
	if strings.TrimSpace(in.Title) == "" {
		v.Fields["title"] = "title is required"
	}
	if in.DurationMin <= 0 {
		v.Fields["duration_min"] = "duration_min must be positive"
	}
	if len(v.Fields) > 0 {
		return v
	}
	return nil
}

// CreateMovie stores a movie with its genres and actors.  Unknown genre or
// actor ids are reported as not found.
func (s *CatalogService) CreateMovie(ctx context.Context, in MovieInput) (model.Movie, error) {
	if err := validateMovie(in); err != nil {
		return model.Movie{}, err
	}
	m := model.Movie{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DurationMin: in.DurationMin,
		ReleaseDate: in.ReleaseDate,
	}
	if err := s.store.CreateMovie(ctx, &m, in.GenreIDs, in.ActorIDs); err != nil {
		return m, translate(err, "unknown genre or actor")
	}
	s.log.WithFields(logrus.Fields{"movie_id": m.ID, "title": m.Title}).Info("movie created")
	return s.GetMovie(ctx, m.ID)
}

// UpdateMovie replaces a movie's fields and credits.  Existing showtimes
// keep their end time.
func (s *CatalogService) UpdateMovie(ctx context.Context, id uint64, in MovieInput) (model.Movie, error) {
	if err := validateMovie(in); err != nil {
		return model.Movie{}, err
	}
	m := model.Movie{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DurationMin: in.DurationMin,
		ReleaseDate: in.ReleaseDate,
	}
	if err := s.store.UpdateMovie(ctx, &m, in.GenreIDs, in.ActorIDs); err != nil {
		return m, translate(err, "movie, genre or actor not found")
	}
	return s.GetMovie(ctx, id)
}

func (s *CatalogService) DeleteMovie(ctx context.Context, id uint64) error {
	err := s.store.DeleteMovie(ctx, id)
	if errorsIsNotFound(err) {
		return translate(err, "movie not found")
	}
	return translate(err, "movie has showtimes")
}
