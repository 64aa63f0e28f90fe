package docstore

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fedramphub/internal"
)

// Manifest says where each document category lives and which files belong
// to it.
type Manifest struct {
	Categories []CategorySpec `yaml:"categories"`
}

type CategorySpec struct {
	Name internal.DocumentCategory `yaml:"name"`
	// Label prefixes document ids, e.g. "RFC/0001.md".
	Label string `yaml:"label"`
	Root  string `yaml:"root"`
	// Include holds doublestar patterns relative to Root.
	Include   []string       `yaml:"include"`
	Documents []DocumentSpec `yaml:"documents"`
}

// DocumentSpec names a file explicitly, usually to give it a title.
type DocumentSpec struct {
	File  string `yaml:"file"`
	Title string `yaml:"title"`
}

// DefaultManifest covers the published standards, RFC and roadmap trees.
func DefaultManifest(docsDir, rfcsDir, roadmapDir string) Manifest {
	return Manifest{Categories: []CategorySpec{
		{
			Name: internal.CategoryStandards, Label: "Standards", Root: docsDir, Include: []string{"*.md"},
			Documents: []DocumentSpec{
				{File: "FRMR.KSI.key-security-indicators-with-controls.md", Title: "Key Security Indicators (with Controls)"},
				{File: "FRMR.KSI.key-security-indicators.md", Title: "Key Security Indicators"},
				{File: "FRMR.LOW.20x-low-pilot.md", Title: "20x Low Pilot Requirements"},
				{File: "FRMR.MAS.minimum-assessment-standard.md", Title: "Minimum Assessment Standard"},
				{File: "FRMR.SCN.significant-change-notifications.md", Title: "Significant Change Notifications"},
			},
		},
		{
			Name: internal.CategoryRFC, Label: "RFC", Root: rfcsDir, Include: []string{"*.md"},
			Documents: []DocumentSpec{
				{File: "0001.md", Title: "RFC 0001: New Comment Process"},
				{File: "0002.md", Title: "RFC 0002: 3PAO Requirements"},
				{File: "0003.md", Title: "RFC 0003: Review Initiation Check"},
				{File: "0004.md", Title: "RFC 0004: Boundary Policy"},
				{File: "0005.md", Title: "RFC 0005: Minimum Assessment Scope"},
				{File: "0006.md", Title: "RFC 0006: Key Security Indicators"},
				{File: "0007.md", Title: "RFC 0007: Significant Change Notification"},
				{File: "0008.md", Title: "RFC 0008: Continuous Reporting Standard"},
				{File: "0009.md", Title: "RFC 0009: SCN Technical Assistance"},
				{File: "0010.md", Title: "RFC 0010: Scope Interpretation"},
				{File: "0011.md", Title: "RFC 0011: Storing and Sharing Standard"},
				{File: "0012.md", Title: "RFC 0012: Vulnerability Management"},
			},
		},
		{
			Name: internal.CategoryRoadmap, Label: "Roadmap", Root: roadmapDir, Include: []string{"*.md"},
			Documents: []DocumentSpec{
				{File: "README.md", Title: "Roadmap Overview"},
				{File: "PROGRESS.md", Title: "Sprint Progress Updates"},
			},
		},
	}}
}

// LoadManifest reads a YAML manifest. Relative roots are resolved against the
// manifest's directory.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i := range m.Categories {
		if root := m.Categories[i].Root; root != "" && !filepath.IsAbs(root) {
			m.Categories[i].Root = filepath.Join(base, root)
		}
	}
	return m, nil
}

func ParseManifest(raw []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	for i := range m.Categories {
		c := &m.Categories[i]
		switch c.Name {
		case internal.CategoryStandards, internal.CategoryRFC, internal.CategoryRoadmap:
		default:
			return Manifest{}, fmt.Errorf("category %d: unknown name %q", i, c.Name)
		}
		if c.Root == "" {
			return Manifest{}, fmt.Errorf("category %s: root is required", c.Name)
		}
		if c.Label == "" {
			c.Label = string(c.Name)
		}
		if len(c.Include) == 0 && len(c.Documents) == 0 {
			c.Include = []string{"*.md"}
		}
	}
	return m, nil
}
