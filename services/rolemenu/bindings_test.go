package rolemenu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolebot/core"
	"rolebot/models"
)

func TestLoadBindings(t *testing.T) {
	t.Run("defaults when no file is configured", func(t *testing.T) {
		bindings, err := LoadBindings("")

		require.NoError(t, err)
		assert.Equal(t, DefaultBindings(), bindings.All())
		assert.Equal(t, "JEFE DE REUNION", bindings.RoleFor("👔").MustGet())
		assert.Equal(t, "PARTICIPANTE DE REUNION", bindings.RoleFor("🙋‍♂️").MustGet())
	})

	t.Run("reads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "roles.yaml")
		content := "bindings:\n" +
			"  - emoji: \"🎤\"\n" +
			"    role: \"PONENTE\"\n" +
			"  - emoji: \"📝\"\n" +
			"    role: \"SECRETARIO\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		bindings, err := LoadBindings(path)

		require.NoError(t, err)
		assert.Equal(t, []models.RoleBinding{
			{Emoji: "🎤", RoleName: "PONENTE"},
			{Emoji: "📝", RoleName: "SECRETARIO"},
		}, bindings.All())
		assert.True(t, bindings.RoleFor("👔").IsAbsent())
	})

	t.Run("rejects duplicate emoji", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "roles.yaml")
		content := "bindings:\n" +
			"  - emoji: \"👔\"\n" +
			"    role: \"A\"\n" +
			"  - emoji: \"👔\"\n" +
			"    role: \"B\"\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := LoadBindings(path)

		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrConfiguration))
	})

	t.Run("fails on missing file", func(t *testing.T) {
		_, err := LoadBindings(filepath.Join(t.TempDir(), "missing.yaml"))

		assert.Error(t, err)
	})
}

func TestNewBindings(t *testing.T) {
	t.Run("rejects empty table", func(t *testing.T) {
		_, err := NewBindings(nil)
		assert.True(t, errors.Is(err, core.ErrConfiguration))
	})

	t.Run("rejects incomplete binding", func(t *testing.T) {
		_, err := NewBindings([]models.RoleBinding{{Emoji: "👔"}})
		assert.True(t, errors.Is(err, core.ErrConfiguration))
	})

	t.Run("treats variation selector as the same emoji", func(t *testing.T) {
		bindings, err := NewBindings([]models.RoleBinding{{Emoji: "🙋‍♂️", RoleName: "PARTICIPANTE DE REUNION"}})
		require.NoError(t, err)

		assert.Equal(t, "PARTICIPANTE DE REUNION", bindings.RoleFor("🙋‍♂").OrEmpty())

		_, err = NewBindings([]models.RoleBinding{
			{Emoji: "🙋‍♂️", RoleName: "A"},
			{Emoji: "🙋‍♂", RoleName: "B"},
		})
		assert.True(t, errors.Is(err, core.ErrConfiguration))
	})
}
