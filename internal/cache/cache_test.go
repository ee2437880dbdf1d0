package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilClient(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), time.Minute), ErrUnavailable)
	_, err := c.Exists(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = c.HSetNX(ctx, "h", "f", []byte("v"))
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = c.HDel(ctx, "h", "f")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = c.HGetAll(ctx, "h")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = c.HLen(ctx, "h")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, c.Ping(ctx), ErrUnavailable)
	assert.NoError(t, c.Close())
}

func TestUnreachableServerReportsErrors(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := c.Exists(ctx, "k")
	assert.Error(t, err)
	_, err = c.HGetAll(ctx, "h")
	assert.Error(t, err)
}
