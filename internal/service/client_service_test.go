package service_test

import (
	"context"
	"testing"

	"github.com/Freeeeeet/coach_portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientService_Register(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	c, err := e.clients.Register(ctx, "  Jane@Example.com ", "Jane", "555-0100")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", c.Email)
	assert.NotZero(t, c.ID)

	again, err := e.clients.Register(ctx, "jane@example.com", "Jane Doe", "")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
	assert.Equal(t, "Jane Doe", again.Name)

	_, err = e.clients.Register(ctx, "not-an-email", "X", "")
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func TestClientService_Lookups(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	a := e.register(t, "a@example.com")
	e.register(t, "b@example.com")

	got, err := e.clients.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Email, got.Email)

	_, err = e.clients.GetByID(ctx, 404)
	assert.ErrorIs(t, err, model.ErrClientNotFound)

	_, err = e.clients.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, model.ErrClientNotFound)

	all, err := e.clients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
