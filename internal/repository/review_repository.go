package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-booking/internal/model"
)

type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewSelect = `SELECT r.id, r.author_id, r.movie_id, r.rating, r.comment, r.date,
       u.id, u.username, u.email, u.first_name, u.last_name
FROM reviews r JOIN users u ON u.id = r.author_id`

func scanReview(row interface{ Scan(...any) error }, rv *model.Review) error {
	u := &model.User{}
	if err := row.Scan(&rv.ID, &rv.AuthorID, &rv.MovieID, &rv.Rating, &rv.Comment, &rv.Date,
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName); err != nil {
		return err
	}
	rv.Author = u
	return nil
}

// Create inserts the review.  A second review by the same author for the
// same movie yields ErrDuplicate; an unknown movie yields ErrNotFound.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (author_id, movie_id, rating, comment, date) VALUES (?,?,?,?,?)",
		rv.AuthorID, rv.MovieID, rv.Rating, rv.Comment, rv.Date.UTC())
	if err != nil {
		switch {
		case isDuplicate(err):
			return ErrDuplicate
		case isFKViolation(err):
			return ErrNotFound
		}
		return errors.Wrap(err, "insert review")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "review id")
	}
	rv.ID = uint64(id)
	return nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	var rv model.Review
	if err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+" WHERE r.id=?", id), &rv); err != nil {
		return rv, notFound(err, "get review")
	}
	return rv, nil
}

// ListByMovie returns the reviews of a movie, newest first.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx, reviewSelect+" WHERE r.movie_id=? ORDER BY r.date DESC, r.id DESC", movieID)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := scanReview(rows, &rv); err != nil {
			return nil, errors.Wrap(err, "scan review")
		}
		out = append(out, rv)
	}
	return out, errors.Wrap(rows.Err(), "list reviews")
}

func (r *ReviewRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", id)
	if err != nil {
		return errors.Wrap(err, "delete review")
	}
	return mustAffect(res, "delete review")
}
