package questionnaire

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed variants/*.yaml
var variantFS embed.FS

// definition mirrors the YAML document. It is converted into a Questionnaire only
// after validation succeeds.
type definition struct {
	Name                   string                   `yaml:"name"`
	QuestionsPerPage       int                      `yaml:"questions_per_page"`
	ClassificationBoundary *float64                 `yaml:"classification_boundary"`
	ResponseOptions        []ResponseOption         `yaml:"response_options"`
	Subscales              map[string]SubscaleRange `yaml:"subscales"`
	AttentionCheck         *AttentionCheck          `yaml:"attention_check"`
	Thresholds             Thresholds               `yaml:"thresholds"`
	Questions              []Question               `yaml:"questions"`
}

// Load reads and validates a questionnaire definition from a YAML file.
func Load(path string) (*Questionnaire, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questionnaire %s: %w", path, err)
	}
	q, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load questionnaire %s: %w", path, err)
	}
	return q, nil
}

// Parse decodes and validates a YAML definition. Unknown fields are rejected so a
// misspelled key cannot silently fall back to a default.
func Parse(data []byte) (*Questionnaire, error) {
	var def definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return nil, newConfigError("", "empty definition")
		}
		return nil, &ConfigurationError{Reason: fmt.Sprintf("parse yaml: %v", err)}
	}
	return build(def)
}

// Builtin returns one of the definitions compiled into the binary.
func Builtin(name string) (*Questionnaire, error) {
	data, err := variantFS.ReadFile("variants/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown builtin questionnaire %q (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	return Parse(data)
}

// BuiltinNames lists the compiled-in definitions in sorted order.
func BuiltinNames() []string {
	entries, err := variantFS.ReadDir("variants")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Resolve loads path when it names a file and falls back to a builtin definition
// of that name otherwise. An empty source selects the reference definition.
func Resolve(source string) (*Questionnaire, error) {
	if source == "" {
		return Builtin("reference")
	}
	if _, err := os.Stat(source); err == nil {
		return Load(source)
	}
	return Builtin(source)
}

func build(def definition) (*Questionnaire, error) {
	if err := validate(&def); err != nil {
		return nil, err
	}

	q := &Questionnaire{
		name:             def.Name,
		questions:        def.Questions,
		byID:             make(map[int]Question, len(def.Questions)),
		subscales:        make(map[SubscaleKind]SubscaleRange, len(def.Subscales)),
		attentionCheck:   *def.AttentionCheck,
		thresholds:       def.Thresholds,
		responseOptions:  def.ResponseOptions,
		questionsPerPage: def.QuestionsPerPage,
		scaleMin:         def.ResponseOptions[0].Value,
		scaleMax:         def.ResponseOptions[len(def.ResponseOptions)-1].Value,
	}
	for _, question := range def.Questions {
		q.byID[question.ID] = question
	}
	for key, r := range def.Subscales {
		q.subscales[SubscaleKind(key)] = r
	}
	q.classificationBoundary = *def.ClassificationBoundary
	return q, nil
}
