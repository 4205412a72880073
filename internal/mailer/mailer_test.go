package mailer

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishJSON(ctx context.Context, exchange, key string, v any) error {
	return m.Called(ctx, exchange, key, v).Error(0)
}

func TestQueueMailerPublishesToMailQueue(t *testing.T) {
	pub := &mockPublisher{}
	msg := Message{To: "a@b.c", Subject: "hi", Body: "hello"}
	pub.On("PublishJSON", mock.Anything, "", "mail.outgoing", msg).Return(nil).Once()

	require.NoError(t, NewQueueMailer(pub).Send(context.Background(), msg))
	pub.AssertExpectations(t)
}

func TestLogMailer(t *testing.T) {
	logger, hook := test.NewNullLogger()
	require.NoError(t, NewLogMailer(logger).Send(context.Background(), Message{To: "a@b.c", Subject: "s", Body: "b"}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "a@b.c", entry.Data["to"])
	assert.Equal(t, "b", entry.Message)
}
