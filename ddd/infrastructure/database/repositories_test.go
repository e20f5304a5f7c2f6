package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRepositoriesWithoutDBUsesMemory(t *testing.T) {
	repos := NewRepositories(nil)
	require.NotNil(t, repos.Memory)
	assert.NotNil(t, repos.Courses)
	assert.NotNil(t, repos.Batches)
}
