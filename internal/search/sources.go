package search

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes one provider entry in the sources file.
type SourceConfig struct {
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
}

// SourcesFile is the on-disk provider configuration.
type SourcesFile struct {
	Providers []SourceConfig `yaml:"providers"`
}

// DefaultSources is the provider chain used when no sources file exists:
// paid APIs first, the keyless scraper last.
func DefaultSources() SourcesFile {
	return SourcesFile{
		Providers: []SourceConfig{
			{Name: "serpapi", Enabled: true, Priority: 1},
			{Name: "serper", Enabled: true, Priority: 2},
			{Name: "jina", Enabled: true, Priority: 3},
			{Name: "duckduckgo", Enabled: true, Priority: 4},
		},
	}
}

// LoadSources reads a sources YAML file. A missing path returns the
// default chain.
func LoadSources(path string) (SourcesFile, error) {
	if path == "" {
		return DefaultSources(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSources(), nil
		}
		return SourcesFile{}, eris.Wrapf(err, "search: read sources file %s", path)
	}

	var f SourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return SourcesFile{}, eris.Wrapf(err, "search: parse sources file %s", path)
	}
	if len(f.Providers) == 0 {
		return DefaultSources(), nil
	}
	return f, nil
}

// Order returns the enabled provider names sorted by ascending priority.
// Equal priorities keep file order.
func (f SourcesFile) Order() []string {
	enabled := make([]SourceConfig, 0, len(f.Providers))
	for _, p := range f.Providers {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})
	names := make([]string, len(enabled))
	for i, p := range enabled {
		names[i] = p.Name
	}
	return names
}
