package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate(PrefixTitle)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixTitle, PrefixRun, "custom"} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))

			// NanoID default is 21 characters
			nanoidPart := strings.TrimPrefix(id, prefix+"-")
			assert.Len(t, nanoidPart, 21)

			for _, char := range nanoidPart {
				assert.True(t,
					(char >= 'A' && char <= 'Z') ||
						(char >= 'a' && char <= 'z') ||
						(char >= '0' && char <= '9') ||
						char == '_' || char == '-',
					"Character %c should be URL-safe", char)
			}
		})
	}
}

func TestHasPrefix(t *testing.T) {
	titleID, err := Generate(PrefixTitle)
	require.NoError(t, err)
	runID, err := Generate(PrefixRun)
	require.NoError(t, err)

	assert.True(t, HasPrefix(titleID, PrefixTitle))
	assert.False(t, HasPrefix(runID, PrefixTitle))
	assert.False(t, HasPrefix("title-", PrefixTitle))
	assert.False(t, HasPrefix("titles", PrefixTitle))
}

func BenchmarkGenerate(b *testing.B) {
	for b.Loop() {
		_, _ = Generate("bench")
	}
}
