package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// CinemaRepo encapsulates all database queries related to cinemas.
// number_of_rooms is never stored; it is counted from the rooms table.
type CinemaRepo struct {
	db *sql.DB
}

func NewCinemaRepo(db *sql.DB) *CinemaRepo { return &CinemaRepo{db: db} }

const cinemaSelect = `SELECT c.id, c.name, c.street, c.ward, c.district, c.city,
       (SELECT COUNT(*) FROM rooms r WHERE r.cinema_id = c.id)
FROM cinemas c`

func scanCinema(row interface{ Scan(...any) error }, c *model.Cinema) error {
	return row.Scan(&c.ID, &c.Name, &c.Street, &c.Ward, &c.District, &c.City, &c.NumberOfRooms)
}

// CreateCinema inserts a new cinema and populates its ID.
func (r *CinemaRepo) CreateCinema(ctx context.Context, c *model.Cinema) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO cinemas (name, street, ward, district, city) VALUES (?, ?, ?, ?, ?)",
		c.Name, c.Street, c.Ward, c.District, c.City)
	if err != nil {
		return errors.Wrap(err, "insert cinema")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "cinema id")
	}
	c.ID = uint64(id)
	return nil
}

// GetCinema fetches a cinema by its ID.
func (r *CinemaRepo) GetCinema(ctx context.Context, id uint64) (model.Cinema, error) {
	var c model.Cinema
	if err := scanCinema(r.db.QueryRowContext(ctx, cinemaSelect+" WHERE c.id = ?", id), &c); err != nil {
		return c, notFound(err, "get cinema")
	}
	return c, nil
}

// ListCinemas returns all cinemas ordered by city then name.
func (r *CinemaRepo) ListCinemas(ctx context.Context) ([]model.Cinema, error) {
	rows, err := r.db.QueryContext(ctx, cinemaSelect+" ORDER BY c.city, c.name, c.id")
	if err != nil {
		return nil, errors.Wrap(err, "list cinemas")
	}
	defer rows.Close()
	out := []model.Cinema{}
	for rows.Next() {
		var c model.Cinema
		if err := scanCinema(rows, &c); err != nil {
			return nil, errors.Wrap(err, "scan cinema")
		}
		out = append(out, c)
	}
	return out, errors.Wrap(rows.Err(), "list cinemas")
}

// UpdateCinema overwrites the address fields of a cinema.
func (r *CinemaRepo) UpdateCinema(ctx context.Context, c *model.Cinema) error {
	if _, err := r.GetCinema(ctx, c.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE cinemas SET name=?, street=?, ward=?, district=?, city=? WHERE id=?",
		c.Name, c.Street, c.Ward, c.District, c.City, c.ID)
	return errors.Wrap(err, "update cinema")
}

// DeleteCinema removes a cinema and, by cascade, its rooms and seats.  A cinema
// whose rooms have showtimes yields ErrConflict.
func (r *CinemaRepo) DeleteCinema(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cinemas WHERE id=?", id)
	if err != nil {
		if isFKViolation(err) {
			return ErrConflict
		}
		return errors.Wrap(err, "delete cinema")
	}
	return mustAffect(res, "delete cinema")
}
