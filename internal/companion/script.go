package companion

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"sensai/internal/models"
)

//go:embed script.yml
var defaultScript []byte

// Script is the per-screen narration catalog.
type Script struct {
	lines map[StateName]*template.Template
}

type scriptFile struct {
	Lines map[string]string `yaml:"lines"`
}

// DefaultScript parses the embedded catalog.
func DefaultScript() *Script {
	s, err := ParseScript(defaultScript)
	if err != nil {
		panic(fmt.Sprintf("embedded narration script: %v", err))
	}
	return s
}

// LoadScript reads a catalog file. Screens it does not mention keep their
// default lines.
func LoadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read narration script: %w", err)
	}
	custom, err := ParseScript(raw)
	if err != nil {
		return nil, err
	}
	base := DefaultScript()
	for name, t := range custom.lines {
		base.lines[name] = t
	}
	return base, nil
}

// ParseScript parses a yaml catalog.
func ParseScript(raw []byte) (*Script, error) {
	var f scriptFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse narration script: %w", err)
	}
	s := &Script{lines: make(map[StateName]*template.Template, len(f.Lines))}
	for name, text := range f.Lines {
		t, err := template.New(name).Option("missingkey=zero").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("narration line %s: %w", name, err)
		}
		s.lines[StateName(name)] = t
	}
	return s, nil
}

// Line is what the companion says on entering st. Screens whose words come
// from the advisor return that text, or "" while it is still pending.
func (s *Script) Line(st State, stats models.Stats) (string, error) {
	switch v := st.(type) {
	case NewbieRecommendationsState:
		return v.Advice, nil
	case ActiveSessionState:
		return v.Intro, nil
	case ShowRecommendationsState:
		return v.Text, nil
	case StatsDisplayState:
		if v.Recommendation != "" {
			return v.Recommendation, nil
		}
	}
	t, ok := s.lines[st.Name()]
	if !ok {
		return "", nil
	}
	var b bytes.Buffer
	data := struct {
		State State
		Stats models.Stats
	}{st, stats}
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render narration line %s: %w", st.Name(), err)
	}
	return strings.Join(strings.Fields(b.String()), " "), nil
}
