package batch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is one independent simulation run to analyse.
type Scenario struct {
	Name    string `yaml:"name"`
	FlowLog string `yaml:"flow_log"`
	LinkLog string `yaml:"link_log"`
	Output  string `yaml:"output,omitempty"` // overrides <output_dir>/<name>.json
}

// Options apply to every scenario of a batch.
type Options struct {
	OutputDir       string `yaml:"output_dir,omitempty"`
	Verify          bool   `yaml:"verify,omitempty"`
	CheckInvariants bool   `yaml:"check_invariants,omitempty"`
}

// Manifest lists the scenarios of a batch.
// All fields must be listed to satisfy KnownFields(true) strict parsing.
type Manifest struct {
	Workers   int        `yaml:"workers,omitempty"`
	Options   `yaml:",inline"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadManifest reads a manifest. Relative paths are resolved against the
// manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	m.OutputDir = resolve(m.OutputDir)
	for i := range m.Scenarios {
		sc := &m.Scenarios[i]
		sc.FlowLog = resolve(sc.FlowLog)
		sc.LinkLog = resolve(sc.LinkLog)
		sc.Output = resolve(sc.Output)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks that every scenario is named uniquely and has both logs.
func (m *Manifest) Validate() error {
	if m.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", m.Workers)
	}
	if len(m.Scenarios) == 0 {
		return fmt.Errorf("manifest lists no scenarios")
	}
	seen := make(map[string]bool, len(m.Scenarios))
	writers := make(map[string]string, len(m.Scenarios)) // output path -> scenario
	for i, sc := range m.Scenarios {
		switch {
		case sc.Name == "":
			return fmt.Errorf("scenario %d has no name", i)
		case sc.Name != filepath.Base(sc.Name) || sc.Name == "." || sc.Name == "..":
			return fmt.Errorf("scenario name %q must be a plain file name", sc.Name)
		case seen[sc.Name]:
			return fmt.Errorf("scenario %q listed twice", sc.Name)
		case sc.FlowLog == "" || sc.LinkLog == "":
			return fmt.Errorf("scenario %q needs both flow_log and link_log", sc.Name)
		}
		seen[sc.Name] = true
		if out := m.outputPath(sc); out != "" {
			if prev, dup := writers[out]; dup {
				return fmt.Errorf("scenarios %q and %q both write %s", prev, sc.Name, out)
			}
			writers[out] = sc.Name
		}
	}
	return nil
}

// outputPath is where sc's busy periods are written, or "" when nowhere.
func (o Options) outputPath(sc Scenario) string {
	switch {
	case sc.Output != "":
		return filepath.Clean(sc.Output)
	case o.OutputDir != "":
		return filepath.Join(o.OutputDir, sc.Name+".json")
	}
	return ""
}
