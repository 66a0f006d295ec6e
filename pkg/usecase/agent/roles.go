package agent

import (
	_ "embed"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var defaultRoles []byte

// Stage is one agent role in the pipeline
type Stage struct {
	Name   string `yaml:"name"`
	Label  string `yaml:"label"`
	System string `yaml:"system"`
}

type roleFile struct {
	Stages []*Stage `yaml:"stages"`
}

// DefaultStages returns planner, researcher and writer
func DefaultStages() []*Stage {
	stages, err := ParseStages(defaultRoles)
	if err != nil {
		panic("embedded roles.yaml is invalid: " + err.Error())
	}
	return stages
}

// ParseStages decodes a roles YAML document
func ParseStages(data []byte) ([]*Stage, error) {
	var file roleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse roles")
	}
	if len(file.Stages) == 0 {
		return nil, goerr.New("roles must define at least one stage")
	}

	for i, s := range file.Stages {
		if s == nil || s.System == "" {
			return nil, goerr.New("stage has no system prompt", goerr.V("stage", i))
		}
		if s.Name == "" {
			s.Name = s.Label
		}
		if s.Label == "" {
			s.Label = s.Name
		}
	}
	return file.Stages, nil
}

// LoadStages reads a roles YAML file
func LoadStages(path string) ([]*Stage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open roles file", goerr.V("path", path))
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read roles file", goerr.V("path", path))
	}

	stages, err := ParseStages(data)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid roles file", goerr.V("path", path))
	}
	return stages, nil
}
