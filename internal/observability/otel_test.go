package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

func TestParseRatio(t *testing.T) {
	assert.Equal(t, 0.1, parseRatio(""))
	assert.Equal(t, 0.1, parseRatio("x"))
	assert.Equal(t, 0.0, parseRatio("-1"))
	assert.Equal(t, 1.0, parseRatio("5"))
	assert.Equal(t, 0.5, parseRatio("0.5"))
}

func TestParseHeaders(t *testing.T) {
	assert.Nil(t, parseHeaders(""))
	assert.Nil(t, parseHeaders("broken,=x"))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, parseHeaders(" a=1 , b = 2,c"))
}

func TestInitOTelDisabled(t *testing.T) {
	log, err := logger.New("test")
	require.NoError(t, err)
	shutdown := InitOTel(context.Background(), log, OtelConfig{Enabled: false})
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, Tracer())
}
