package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuditSink records consumed booking events.
type AuditSink interface {
	Write(ctx context.Context, ev BookingEvent) error
}

// FileSink appends one human-readable line per event to a log file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

func NewFileSink(path string) *FileSink { return &FileSink{path: path} }

func (s *FileSink) Write(_ context.Context, ev BookingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "mkdir audit dir")
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open audit log")
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return errors.Wrap(err, "write audit log")
	}
	return nil
}

// FormatLine renders ev as a single log line.
func FormatLine(ev BookingEvent) string {
	return fmt.Sprintf("[%s] %s | booking_id=%d | user_id=%d | showtime_id=%d | movie=%q | room=%q | total=%d | seats=[%s]\n",
		ev.At.UTC().Format(time.RFC3339), ev.Type, ev.BookingID, ev.UserID, ev.ShowtimeID,
		ev.MovieTitle, ev.RoomName, ev.Total, strings.Join(ev.SeatLabels, ","))
}

// MongoSink stores events in the booking_audit collection.
type MongoSink struct {
	coll *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{coll: db.Collection("booking_audit")}
}

type auditDoc struct {
	ID         string    `bson:"_id"`
	Action     string    `bson:"action"`
	BookingID  uint64    `bson:"booking_id"`
	UserID     uint64    `bson:"user_id"`
	ShowtimeID uint64    `bson:"showtime_id"`
	Timestamp  time.Time `bson:"timestamp"`
	Data       bson.M    `bson:"data"`
}

func (s *MongoSink) Write(ctx context.Context, ev BookingEvent) error {
	doc := auditDoc{
		ID:         uuid.NewString(),
		Action:     ev.Type,
		BookingID:  ev.BookingID,
		UserID:     ev.UserID,
		ShowtimeID: ev.ShowtimeID,
		Timestamp:  ev.At,
		Data: bson.M{
			"seat_ids": ev.SeatIDs,
			"seats":    ev.SeatLabels,
			"total":    ev.Total,
			"movie":    ev.MovieTitle,
			"room":     ev.RoomName,
		},
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(err, "insert audit doc")
	}
	return nil
}
