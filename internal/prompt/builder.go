// Package prompt renders the stage instructions handed to the voice runtime.
package prompt

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/Proton-105/rental-agent/internal/workflow"
)

// Field names used by the stage templates.
const (
	FieldEquipmentContext    = "equipment_context"
	FieldSelectedEquipment   = "selected_equipment"
	FieldCertRequired        = "cert_required"
	FieldWeightClass         = "weight_class"
	FieldDailyRate           = "daily_rate"
	FieldMaxRate             = "max_rate"
	FieldNegotiationAttempts = "negotiation_attempts"
	FieldMaxAttempts         = "max_attempts"
	FieldMinInsurance        = "min_insurance"
)

// companyKey is supplied by the builder itself and cannot be passed as a field.
const companyKey = "company"

var (
	ErrUnknownStage    = errors.New("prompt: unknown stage")
	ErrMissingField    = errors.New("prompt: missing field")
	ErrUnexpectedField = errors.New("prompt: unexpected field")
)

//go:embed templates.yaml
var defaultCatalog []byte

// Fields carries the named values substituted into a stage template.
type Fields map[string]string

type catalogFile struct {
	Preamble string                  `yaml:"preamble"`
	Stages   map[string]catalogStage `yaml:"stages"`
}

type catalogStage struct {
	Fields   []string `yaml:"fields"`
	Template string   `yaml:"template"`
}

type stageTemplate struct {
	fields []string
	tmpl   *template.Template
}

// Builder renders persona preamble plus stage template.
type Builder struct {
	company  string
	preamble *template.Template
	stages   map[workflow.Stage]stageTemplate
}

// New loads the embedded catalog.
func New(company string) (*Builder, error) {
	return Parse(defaultCatalog, company)
}

// Parse loads a catalog and checks that every stage has a template that only
// references its declared fields.
func Parse(data []byte, company string) (*Builder, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("prompt: decode catalog: %w", err)
	}

	preamble, err := template.New("preamble").Option("missingkey=error").Parse(file.Preamble)
	if err != nil {
		return nil, fmt.Errorf("prompt: parse preamble: %w", err)
	}

	b := &Builder{
		company:  company,
		preamble: preamble,
		stages:   make(map[workflow.Stage]stageTemplate, len(file.Stages)),
	}

	for name, raw := range file.Stages {
		stage := workflow.Stage(name)
		if !stage.Valid() {
			return nil, fmt.Errorf("%w: %q in catalog", ErrUnknownStage, name)
		}

		tmpl, err := template.New(name).Option("missingkey=error").Parse(raw.Template)
		if err != nil {
			return nil, fmt.Errorf("prompt: parse %s template: %w", name, err)
		}

		fields := append([]string(nil), raw.Fields...)
		sort.Strings(fields)
		b.stages[stage] = stageTemplate{fields: fields, tmpl: tmpl}
	}

	for _, stage := range workflow.Stages() {
		st, ok := b.stages[stage]
		if !ok {
			return nil, fmt.Errorf("prompt: catalog has no template for stage %s", stage)
		}

		probe := make(Fields, len(st.fields))
		for _, f := range st.fields {
			probe[f] = f
		}
		if _, err := b.Render(stage, probe); err != nil {
			return nil, fmt.Errorf("prompt: stage %s references undeclared fields: %w", stage, err)
		}
	}

	return b, nil
}

// Required returns the sorted field names the stage template needs.
func (b *Builder) Required(stage workflow.Stage) []string {
	st, ok := b.stages[stage]
	if !ok {
		return nil
	}
	return append([]string(nil), st.fields...)
}

// Render produces the instructions for stage. fields must contain exactly the
// stage's declared field names.
func (b *Builder) Render(stage workflow.Stage, fields Fields) (string, error) {
	st, ok := b.stages[stage]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}

	declared := make(map[string]struct{}, len(st.fields))
	for _, f := range st.fields {
		declared[f] = struct{}{}
		if _, ok := fields[f]; !ok {
			return "", fmt.Errorf("%w: %s requires %q", ErrMissingField, stage, f)
		}
	}
	for f := range fields {
		if _, ok := declared[f]; !ok {
			return "", fmt.Errorf("%w: %q is not used by %s", ErrUnexpectedField, f, stage)
		}
	}

	data := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		data[k] = v
	}
	data[companyKey] = b.company

	var buf bytes.Buffer
	if err := b.preamble.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt: render preamble: %w", err)
	}
	buf.WriteString("\n")
	if err := st.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt: render %s: %w", stage, err)
	}

	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}
