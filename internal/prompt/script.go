// Package prompt provides a non-interactive Prompter that answers each step
// from a YAML script, for headless runs and repeatable field rehearsals.
package prompt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/tree-sampler/internal/workflow"
)

// TreeReading is one scripted measurement.
type TreeReading struct {
	Garden int    `yaml:"garden"`
	Tree   int    `yaml:"tree"`
	Height string `yaml:"height"`
	Yield  string `yaml:"yield"`
}

// SampleScript chooses gardens in step 3: either auto or an explicit list.
type SampleScript struct {
	Auto    bool  `yaml:"auto"`
	Gardens []int `yaml:"gardens"`
}

// Script is the YAML document driving a headless session.
//
//	area: North
//	age_bucket: "0-5"
//	sample: {auto: true}
//	default: {height: "", yield: ""}
//	measurements:
//	  - {garden: 4, tree: 1, height: "3.2", yield: "11"}
type Script struct {
	Area         string           `yaml:"area"`
	AgeBucket    string           `yaml:"age_bucket"`
	Sample       SampleScript     `yaml:"sample"`
	Default      workflow.Reading `yaml:"default"`
	Measurements []TreeReading    `yaml:"measurements"`
}

// ParseScript decodes a script document.
func ParseScript(data []byte) (Script, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Script{}, fmt.Errorf("prompt: script is empty")
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("prompt: decode script: %w", err)
	}
	if s.Sample.Auto && len(s.Sample.Gardens) > 0 {
		return Script{}, fmt.Errorf("prompt: sample must set either auto or gardens, not both")
	}
	return s, nil
}

// LoadScript reads a script file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("prompt: read %s: %w", path, err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return Script{}, fmt.Errorf("prompt: %s: %w", path, err)
	}
	return s, nil
}

// Scripted answers prompts from a Script. A script cannot correct itself,
// so a re-prompt after a rejected answer ends the run with that problem.
type Scripted struct {
	script Script
}

// NewScripted wraps a parsed script.
func NewScripted(s Script) *Scripted {
	return &Scripted{script: s}
}

// Ask implements workflow.Prompter.
func (s *Scripted) Ask(ctx context.Context, p workflow.Prompt) (workflow.Answer, error) {
	if err := ctx.Err(); err != nil {
		return workflow.Answer{}, err
	}
	if p.Problem != "" {
		return workflow.Answer{}, fmt.Errorf("prompt: script rejected at %s: %s", p.Step, p.Problem)
	}
	switch p.Step {
	case workflow.StepSelectArea:
		return workflow.Answer{Choices: []string{s.script.Area}}, nil
	case workflow.StepSelectAgeBucket:
		return workflow.Answer{Choices: []string{s.script.AgeBucket}}, nil
	case workflow.StepSampleGardens:
		if s.script.Sample.Auto {
			return workflow.Answer{Auto: true}, nil
		}
		choices := make([]string, len(s.script.Sample.Gardens))
		for i, id := range s.script.Sample.Gardens {
			choices[i] = strconv.Itoa(id)
		}
		return workflow.Answer{Choices: choices}, nil
	case workflow.StepEnterMeasurements:
		values := make(map[string]string, len(p.Fields))
		for _, f := range p.Fields {
			values[f.Key] = s.defaultFor(f.Key)
		}
		for _, r := range s.script.Measurements {
			key := workflow.TreeKey{PlotID: r.Garden, TreeNumber: r.Tree}
			values[workflow.FieldKey(key, "height")] = r.Height
			values[workflow.FieldKey(key, "yield")] = r.Yield
		}
		return workflow.Answer{Values: values}, nil
	default:
		return workflow.Answer{}, fmt.Errorf("prompt: no scripted answer for %s", p.Step)
	}
}

func (s *Scripted) defaultFor(key string) string {
	if strings.HasSuffix(key, "_height") {
		return s.script.Default.Height
	}
	return s.script.Default.Yield
}
