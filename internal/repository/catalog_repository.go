package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// CatalogRepo stores genres, actors and movies.  A movie's genres and
// actors live in the movie_genres and movie_actors join tables and are
// replaced wholesale on update.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ---- genres ----

func (r *CatalogRepo) ListGenres(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM genres ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "list genres")
	}
	defer rows.Close()
	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, errors.Wrap(err, "scan genre")
		}
		out = append(out, g)
	}
	return out, errors.Wrap(rows.Err(), "list genres")
}

func (r *CatalogRepo) GetGenre(ctx context.Context, id uint64) (model.Genre, error) {
	g := model.Genre{}
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM genres WHERE id=?", id).Scan(&g.ID, &g.Name)
	if err != nil {
		return g, notFound(err, "get genre")
	}
	return g, nil
}

func (r *CatalogRepo) CreateGenre(ctx context.Context, g *model.Genre) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO genres (name) VALUES (?)", g.Name)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return errors.Wrap(err, "insert genre")
	}
	id, _ := res.LastInsertId()
	g.ID = uint64(id)
	return nil
}

func (r *CatalogRepo) UpdateGenre(ctx context.Context, g *model.Genre) error {
	if _, err := r.GetGenre(ctx, g.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE genres SET name=? WHERE id=?", g.Name, g.ID)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	return errors.Wrap(err, "update genre")
}

func (r *CatalogRepo) DeleteGenre(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM genres WHERE id=?", id)
	if err != nil {
		return errors.Wrap(err, "delete genre")
	}
	return mustAffect(res, "delete genre")
}

// ---- actors ----

func (r *CatalogRepo) ListActors(ctx context.Context) ([]model.Actor, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM actors ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "list actors")
	}
	defer rows.Close()
	out := []model.Actor{}
	for rows.Next() {
		var a model.Actor
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, errors.Wrap(err, "scan actor")
		}
		out = append(out, a)
	}
	return out, errors.Wrap(rows.Err(), "list actors")
}

func (r *CatalogRepo) GetActor(ctx context.Context, id uint64) (model.Actor, error) {
	a := model.Actor{}
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM actors WHERE id=?", id).Scan(&a.ID, &a.Name)
	if err != nil {
		return a, notFound(err, "get actor")
	}
	return a, nil
}

func (r *CatalogRepo) CreateActor(ctx context.Context, a *model.Actor) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO actors (name) VALUES (?)", a.Name)
	if err != nil {
		return errors.Wrap(err, "insert actor")
	}
	id, _ := res.LastInsertId()
	a.ID = uint64(id)
	return nil
}

func (r *CatalogRepo) UpdateActor(ctx context.Context, a *model.Actor) error {
	if _, err := r.GetActor(ctx, a.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "UPDATE actors SET name=? WHERE id=?", a.Name, a.ID)
	return errors.Wrap(err, "update actor")
}

func (r *CatalogRepo) DeleteActor(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM actors WHERE id=?", id)
	if err != nil {
		return errors.Wrap(err, "delete actor")
	}
	return mustAffect(res, "delete actor")
}

// ---- movies ----

const movieColumns = "id, title, description, duration_min, release_date"

func scanMovie(row interface{ Scan(...any) error }, m *model.Movie) error {
	var release sql.NullTime
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.DurationMin, &release); err != nil {
		return err
	}
	if release.Valid {
		t := release.Time
		m.ReleaseDate = &t
	}
	return nil
}

// ListMovies returns all movies, newest release first, with genres and
// actors attached.
func (r *CatalogRepo) ListMovies(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies ORDER BY release_date DESC, id DESC")
	if err != nil {
		return nil, errors.Wrap(err, "list movies")
	}
	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan movie")
		}
		out = append(out, m)
	}
	if err := rows.Close(); err != nil {
		return nil, errors.Wrap(err, "list movies")
	}
	for i := range out {
		if err := r.loadCredits(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetMovie returns one movie with its genres and actors.
func (r *CatalogRepo) GetMovie(ctx context.Context, id uint64) (model.Movie, error) {
	var m model.Movie
	err := scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id=?", id), &m)
	if err != nil {
		return m, notFound(err, "get movie")
	}
	if err := r.loadCredits(ctx, &m); err != nil {
		return m, err
	}
	return m, nil
}

func (r *CatalogRepo) loadCredits(ctx context.Context, m *model.Movie) error {
	m.Genres = []model.Genre{}
	m.Actors = []model.Actor{}

	rows, err := r.db.QueryContext(ctx,
		`SELECT g.id, g.name FROM movie_genres mg JOIN genres g ON g.id = mg.genre_id
		 WHERE mg.movie_id = ? ORDER BY g.name`, m.ID)
	if err != nil {
		return errors.Wrap(err, "load movie genres")
	}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			rows.Close()
			return errors.Wrap(err, "scan movie genre")
		}
		m.Genres = append(m.Genres, g)
	}
	if err := rows.Close(); err != nil {
		return errors.Wrap(err, "load movie genres")
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT a.id, a.name FROM movie_actors ma JOIN actors a ON a.id = ma.actor_id
		 WHERE ma.movie_id = ? ORDER BY a.name`, m.ID)
	if err != nil {
		return errors.Wrap(err, "load movie actors")
	}
	defer rows.Close()
	for rows.Next() {
		var a model.Actor
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return errors.Wrap(err, "scan movie actor")
		}
		m.Actors = append(m.Actors, a)
	}
	return errors.Wrap(rows.Err(), "load movie actors")
}

// CreateMovie inserts the movie and its credits in one transaction.
// Unknown genre or actor ids yield ErrNotFound.
func (r *CatalogRepo) CreateMovie(ctx context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO movies (title, description, duration_min, release_date) VALUES (?,?,?,?)",
			m.Title, m.Description, m.DurationMin, dateArg(m.ReleaseDate))
		if err != nil {
			return errors.Wrap(err, "insert movie")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrap(err, "movie id")
		}
		m.ID = uint64(id)
		return r.setCreditsTx(ctx, tx, m.ID, genreIDs, actorIDs)
	})
}

// UpdateMovie overwrites the movie row and replaces its credits.
func (r *CatalogRepo) UpdateMovie(ctx context.Context, m *model.Movie, genreIDs, actorIDs []uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM movies WHERE id=? FOR UPDATE", m.ID).Scan(&exists); err != nil {
			return notFound(err, "lock movie")
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE movies SET title=?, description=?, duration_min=?, release_date=? WHERE id=?",
			m.Title, m.Description, m.DurationMin, dateArg(m.ReleaseDate), m.ID); err != nil {
			return errors.Wrap(err, "update movie")
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM movie_genres WHERE movie_id=?", m.ID); err != nil {
			return errors.Wrap(err, "clear movie genres")
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM movie_actors WHERE movie_id=?", m.ID); err != nil {
			return errors.Wrap(err, "clear movie actors")
		}
		return r.setCreditsTx(ctx, tx, m.ID, genreIDs, actorIDs)
	})
}

func (r *CatalogRepo) setCreditsTx(ctx context.Context, tx *sql.Tx, movieID uint64, genreIDs, actorIDs []uint64) error {
	insert := func(table, col string, ids []uint64) error {
		if len(ids) == 0 {
			return nil
		}
		var sb strings.Builder
		sb.WriteString("INSERT IGNORE INTO " + table + " (movie_id, " + col + ") VALUES ")
		args := make([]any, 0, len(ids)*2)
		for i, id := range ids {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?)")
			args = append(args, movieID, id)
		}
		if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
			if isFKViolation(err) {
				return ErrNotFound
			}
			return errors.Wrapf(err, "insert %s", table)
		}
		return nil
	}
	if err := insert("movie_genres", "genre_id", genreIDs); err != nil {
		return err
	}
	return insert("movie_actors", "actor_id", actorIDs)
}

// DeleteMovie removes a movie.  Movies referenced by showtimes cannot be
// deleted and yield ErrConflict.
func (r *CatalogRepo) DeleteMovie(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		if isFKViolation(err) {
			return ErrConflict
		}
		return errors.Wrap(err, "delete movie")
	}
	return mustAffect(res, "delete movie")
}

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format("2006-01-02")
}
