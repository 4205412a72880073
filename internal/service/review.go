package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type ReviewService struct {
	store  ReviewStore
	movies CatalogStore
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewReviewService(store ReviewStore, movies CatalogStore, log logrus.FieldLogger) *ReviewService {
	return &ReviewService{store: store, movies: movies, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Create posts the author's review of a movie.  One review per author and
// movie.
func (s *ReviewService) Create(ctx context.Context, authorID, movieID uint64, rating int, comment string) (model.Review, error) {
	v := &ValidationError{Fields: map[string]string{}}
	if rating < 1 || rating > 5 {
		v.Fields["rating"] = "rating must be between 1 and 5"
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		v.Fields["comment"] = "comment is required"
	}
	if len(v.Fields) > 0 {
		return model.Review{}, v
	}
	if _, err := s.movies.GetMovie(ctx, movieID); err != nil {
		return model.Review{}, translate(err, "movie not found")
	}
	rv := model.Review{AuthorID: authorID, MovieID: movieID, Rating: rating, Comment: comment, Date: s.now()}
	if err := s.store.Create(ctx, &rv); err != nil {
		return rv, translate(err, "you have already reviewed this movie")
	}
	return s.store.GetByID(ctx, rv.ID)
}

func (s *ReviewService) ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	if _, err := s.movies.GetMovie(ctx, movieID); err != nil {
		return nil, translate(err, "movie not found")
	}
	return s.store.ListByMovie(ctx, movieID)
}

// Delete removes a review.  Only its author or an admin may do so.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID uint64, admin bool) error {
	rv, err := s.store.GetByID(ctx, reviewID)
	if err != nil {
		return translate(err, "review not found")
	}
	if !admin && rv.AuthorID != userID {
		return ErrForbidden
	}
	if err := s.store.Delete(ctx, reviewID); err != nil {
		return translate(err, "review not found")
	}
	s.log.WithFields(logrus.Fields{"review_id": reviewID, "user_id": userID}).Info("review deleted")
	return nil
}
