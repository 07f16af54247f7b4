package cmd

import (
	"log/slog"

	"github.com/dukex/stepflow/pkg/skills"
)

// NewSkillRegistry loads every skill directory under skillsPath. An empty
// path yields an empty registry.
func NewSkillRegistry(logger *slog.Logger, skillsPath string) (*skills.Registry, error) {
	registry := skills.NewRegistry(logger)

	if skillsPath == "" {
		return registry, nil
	}

	loaded, err := registry.LoadDir(skillsPath)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded skills", "path", skillsPath, "count", loaded)

	return registry, nil
}
