package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserSource_Load(t *testing.T) {
	src := NewUserSource(filepath.Join("testdata", "users.json"))

	users, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 10)

	first := users[0]
	assert.Equal(t, "588935f5c668650dc77df581", first.ID)
	assert.Equal(t, "Connie Stewart", first.Name)
	assert.Equal(t, 25, first.Age)
	assert.Equal(t, "OHMNET", first.Company)
	assert.Equal(t, "conniestewart@ohmnet.com", first.Email)
}

func TestUserSource_MissingFile(t *testing.T) {
	src := NewUserSource(filepath.Join(t.TempDir(), "missing.json"))

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUserSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewUserSource(filepath.Join("testdata", "users.json")).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecode(t *testing.T) {
	users, err := Decode(strings.NewReader(`[{"_id":"a1","name":"A","age":3,"company":"C","email":"a@c.com"}]`))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a1", users[0].ID)

	_, err = Decode(strings.NewReader(`{"_id":"a1"}`))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`[{"_id":"a1","age":"old"}]`))
	assert.Error(t, err)
}
