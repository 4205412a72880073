package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func TestNilClientIsNoop(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := NewSeatMapCache(nil, "", time.Minute, logger)
	ctx := context.Background()

	c.Set(ctx, model.SeatMap{ShowtimeID: 1})
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)
	c.Invalidate(ctx, 1)

	var none *SeatMapCache
	_, ok = none.Get(ctx, 1)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	logger, _ := test.NewNullLogger()
	assert.Equal(t, "cinema:seatmap:42", NewSeatMapCache(nil, "", time.Minute, logger).key(42))
	assert.Equal(t, "x:seatmap:7", NewSeatMapCache(nil, "x", time.Minute, logger).key(7))
}
