package problems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Load()
	require.NoError(t, err)
	return lib
}

func TestLoadParsesEmbeddedBank(t *testing.T) {
	lib := loadLibrary(t)
	assert.NotEmpty(t, lib.translation)
	assert.NotEmpty(t, lib.listening)
	for _, p := range lib.translation {
		assert.NotEmpty(t, p.Japanese)
		assert.NotEmpty(t, p.English)
		assert.Contains(t, []string{"easy", "medium", "hard"}, p.Difficulty)
	}
	for _, p := range lib.listening {
		assert.Len(t, p.Choices, 4)
		assert.Contains(t, p.Choices, p.CorrectAnswer)
	}
}

func TestPickTranslationEikenLevelOverridesDifficulty(t *testing.T) {
	lib := loadLibrary(t)
	for i := 0; i < 20; i++ {
		p := lib.PickTranslation("basic", "all", "1")
		assert.Equal(t, "hard", p.Difficulty)
	}
}

func TestPickTranslationFrontendDifficultyAlias(t *testing.T) {
	lib := loadLibrary(t)
	for i := 0; i < 20; i++ {
		p := lib.PickTranslation("basic", "all", "")
		assert.Equal(t, "easy", p.Difficulty)
	}
}

func TestPickTranslationCategoryAlias(t *testing.T) {
	lib := loadLibrary(t)
	for i := 0; i < 20; i++ {
		p := lib.PickTranslation("all", "work", "")
		assert.Contains(t, []string{"business", "work"}, p.Category)
	}
}

func TestPickTranslationNoMatchFallsBackToWholeBank(t *testing.T) {
	lib := loadLibrary(t)
	p := lib.PickTranslation("all", "nonexistent-category", "")
	assert.NotEmpty(t, p.Japanese)
}

func TestPickTranslationEmptyBankUsesFallbackProblem(t *testing.T) {
	lib := &Library{}
	p := lib.PickTranslation("all", "all", "")
	assert.Equal(t, FallbackTranslation, p)
}

func TestPickListeningMatchesDifficulty(t *testing.T) {
	lib := loadLibrary(t)
	for i := 0; i < 20; i++ {
		p := lib.PickListening("easy")
		assert.Equal(t, "easy", p.Difficulty)
		assert.Equal(t, "This is a fallback question due to external API issues.", p.Explanation)
	}
}

func TestPickListeningUnknownDifficultyServesAnything(t *testing.T) {
	lib := loadLibrary(t)
	p := lib.PickListening("hard")
	assert.NotEmpty(t, p.Question)
}
