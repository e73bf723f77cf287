package cpuaffinity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinWraps(t *testing.T) {
	m := RoundRobin(4)
	assert.Equal(t, 0, m(0))
	assert.Equal(t, 1, m(1))
	assert.Equal(t, 3, m(3))
	assert.Equal(t, 0, m(4))
	assert.Equal(t, 2, m(6))
}

func TestRoundRobinDefaultsToNumCPU(t *testing.T) {
	m := RoundRobin(0)
	require.NotNil(t, m)
	assert.GreaterOrEqual(t, m(0), 0)
}

func TestLoadMappingFile(t *testing.T) {
	r := strings.NewReader("4\n3 1 2 0\n")
	m, err := LoadMappingFile(r)
	require.NoError(t, err)

	assert.Equal(t, 3, m(0))
	assert.Equal(t, 1, m(1))
	assert.Equal(t, 2, m(2))
	assert.Equal(t, 0, m(3))
	// wraps past max_cpus entries
	assert.Equal(t, 3, m(4))
}

func TestLoadMappingFileRejectsNonPositiveMaxCPUs(t *testing.T) {
	_, err := LoadMappingFile(strings.NewReader("0\n"))
	assert.Error(t, err)
}

func TestLoadMappingFileRejectsTruncatedInput(t *testing.T) {
	_, err := LoadMappingFile(strings.NewReader("4\n1 2\n"))
	assert.Error(t, err)
}

func TestLoadMappingFilePathMissingFile(t *testing.T) {
	_, err := LoadMappingFilePath("/nonexistent/cpu-map.txt")
	assert.Error(t, err)
}
