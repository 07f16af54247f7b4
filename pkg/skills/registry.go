// Package skills keeps the set of skill names workflow steps may reference.
package skills

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// SkillFile marks a directory as a skill.
const SkillFile = "SKILL.md"

const frontmatterDelim = "---"

// Skill is a registered capability. Path is empty for skills registered in code.
type Skill struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path,omitempty"`
}

type frontmatter struct {
	Description string `yaml:"description"`
}

type Registry struct {
	logger *slog.Logger
	mu     sync.RWMutex
	skills map[string]*Skill
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger: log.With("module", "skills_registry"),
		skills: make(map[string]*Skill),
	}
}

// Register adds a skill by name. Registering a name twice keeps the latest.
func (r *Registry) Register(name string) {
	r.add(&Skill{Name: name})
}

func (r *Registry) add(skill *Skill) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.skills[skill.Name] = skill
}

// LoadDir registers every direct sub-directory of root that contains a
// SKILL.md file, named after the directory. A missing root registers nothing.
func (r *Registry) LoadDir(root string) (int, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("Skills directory does not exist", "path", root)

		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to read skills directory %s: %w", root, err)
	}

	loaded := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(root, entry.Name())

		content, err := os.ReadFile(filepath.Join(dir, SkillFile))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		if err != nil {
			return loaded, fmt.Errorf("failed to read skill %s: %w", entry.Name(), err)
		}

		r.add(&Skill{Name: entry.Name(), Description: r.description(entry.Name(), content), Path: dir})
		loaded++
	}

	r.logger.Info("Loaded skills", "path", root, "count", loaded)

	return loaded, nil
}

// description reads the optional YAML frontmatter of a SKILL.md file.
func (r *Registry) description(name string, content []byte) string {
	trimmed := bytes.TrimSpace(content)
	if !bytes.HasPrefix(trimmed, []byte(frontmatterDelim)) {
		return ""
	}

	rest := trimmed[len(frontmatterDelim):]

	end := bytes.Index(rest, []byte("\n"+frontmatterDelim))
	if end < 0 {
		return ""
	}

	var meta frontmatter
	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		r.logger.Warn("Ignoring invalid skill frontmatter", "skill", name, "error", err)

		return ""
	}

	return meta.Description
}

// Exists reports whether a skill with the name is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.skills[name]

	return ok
}

// Get returns the registered skill.
func (r *Registry) Get(name string) (*Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skill, ok := r.skills[name]

	return skill, ok
}

// Names returns the registered skill names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
