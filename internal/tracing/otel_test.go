package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupOTelDisabled(t *testing.T) {
	shutdown, err := SetupOTel(context.Background(), "", "cinema")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
