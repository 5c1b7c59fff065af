package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextPropagation(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	ctx := WithRegistry(context.Background(), r)
	assert.Same(t, r, FromContext(ctx))
	assert.Same(t, Global(), FromContext(context.Background()))

	//nolint:staticcheck // a nil parent falls back to Background
	ctx = WithRegistry(nil, r)
	assert.Same(t, r, FromContext(ctx))
}
