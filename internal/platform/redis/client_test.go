package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punchclock/internal/platform/config"
)

func TestNew_DisabledWithoutURL(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})

	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNew_RejectsMalformedURL(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{URL: "://not-a-url"})

	require.Error(t, err)
	assert.Nil(t, client)
}
