package dataset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryDataset is a minimal Dataset[[]string, []string] used to exercise Erase.
type memoryDataset struct {
	data  []string
	saved bool
}

func (m *memoryDataset) Load(_ context.Context) ([]string, error) { return m.data, nil }

func (m *memoryDataset) Save(_ context.Context, data []string) error {
	m.data = data
	m.saved = true
	return nil
}

func (m *memoryDataset) Exists(_ context.Context) (bool, error) { return m.saved, nil }

func (m *memoryDataset) Describe() map[string]any { return map[string]any{"kind": "memory"} }

func (m *memoryDataset) SingleProcess() bool { return true }

func TestErase_RoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := &memoryDataset{}
	ds := Erase[[]string, []string](inner)

	exists, err := ds.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, ds.Save(ctx, []string{"a", "b"}))

	loaded, err := ds.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, loaded)

	exists, err = ds.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, map[string]any{"kind": "memory"}, ds.Describe())
	assert.Same(t, inner, Unwrap(ds))
}

func TestErase_WrongInputType(t *testing.T) {
	ds := Erase[[]string, []string](&memoryDataset{})

	err := ds.Save(context.Background(), 42)
	require.Error(t, err)

	var typeErr *InputTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "[]string", typeErr.Want)
	assert.Equal(t, "int", typeErr.Got)
}

func TestRequiresSingleProcess(t *testing.T) {
	inner := &memoryDataset{}
	assert.True(t, RequiresSingleProcess(inner))
	assert.True(t, RequiresSingleProcess(Erase[[]string, []string](inner)))
	assert.False(t, RequiresSingleProcess("not a dataset"))
}

func TestConfigError(t *testing.T) {
	err := error(&ConfigError{Field: "table_name", Message: "'table_name' argument cannot be empty."})

	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, "'table_name' argument cannot be empty.", err.Error())
}
