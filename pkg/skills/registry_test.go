package skills

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeSkill(t *testing.T, root, name, content string) {
	t.Helper()

	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SkillFile), []byte(content), 0o600))
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry(testLogger())

	assert.False(t, registry.Exists("golint"))

	registry.Register("golint")
	registry.Register("deploy")

	assert.True(t, registry.Exists("golint"))
	assert.Equal(t, []string{"deploy", "golint"}, registry.Names())
}

func TestRegistry_LoadDir(t *testing.T) {
	root := t.TempDir()

	writeSkill(t, root, "golint", "---\nname: golint\ndescription: Runs the linters\n---\n\n# Lint\n")
	writeSkill(t, root, "deploy", "# Deploy\nNo frontmatter here.\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-skill"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("readme"), 0o600))

	registry := NewRegistry(testLogger())

	count, err := registry.LoadDir(root)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"deploy", "golint"}, registry.Names())
	assert.False(t, registry.Exists("not-a-skill"))

	skill, ok := registry.Get("golint")
	require.True(t, ok)
	assert.Equal(t, "Runs the linters", skill.Description)
	assert.Equal(t, filepath.Join(root, "golint"), skill.Path)

	skill, ok = registry.Get("deploy")
	require.True(t, ok)
	assert.Empty(t, skill.Description)
}

func TestRegistry_LoadDirMissing(t *testing.T) {
	registry := NewRegistry(testLogger())

	count, err := registry.LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, registry.Names())
}
