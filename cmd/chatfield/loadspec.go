// Package main's loadspec.go reads a declarative YAML collection
// definition and materializes it through builder.Builder, giving hosts
// that want collections as data (rather than a Go builder chain) an
// equivalent entry point (SPEC_FULL.md CLI section).
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chatfield-dev/chatfield/builder"
	"github.com/chatfield-dev/chatfield/collection"
)

type yamlSpec struct {
	Type  string        `yaml:"type"`
	Desc  string        `yaml:"desc"`
	Alice *yamlRole     `yaml:"alice"`
	Bob   *yamlRole     `yaml:"bob"`
	Field []yamlField   `yaml:"fields"`
}

type yamlRole struct {
	Type     string            `yaml:"type"`
	Traits   []string          `yaml:"traits"`
	Possible map[string]string `yaml:"possibleTraits"`
}

type yamlField struct {
	Name         string     `yaml:"name"`
	Desc         string     `yaml:"desc"`
	Must         []string   `yaml:"must"`
	Reject       []string   `yaml:"reject"`
	Hint         []string   `yaml:"hint"`
	Confidential bool       `yaml:"confidential"`
	Conclude     bool       `yaml:"conclude"`
	Casts        []yamlCast `yaml:"casts"`
}

type yamlCast struct {
	Kind    string   `yaml:"kind"`
	Name    string   `yaml:"name"`
	Prompt  string   `yaml:"prompt"`
	Choices []string `yaml:"choices"`
	Multi   bool     `yaml:"multi"`
	Null    bool     `yaml:"null"`
}

// loadCollection reads path as YAML and drives a builder.Builder chain
// with it, returning the resulting collection.Collection.
func loadCollection(path string) (*collection.Collection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collection file: %w", err)
	}
	var spec yamlSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse collection yaml: %w", err)
	}

	b := builder.New().Type(spec.Type)
	if spec.Desc != "" {
		b = b.Desc(spec.Desc)
	}
	applyRole(b.Alice(), spec.Alice)
	applyRole(b.Bob(), spec.Bob)

	for _, f := range spec.Field {
		b = b.Field(f.Name).Desc(f.Desc)
		for _, m := range f.Must {
			b = b.Must(m)
		}
		for _, r := range f.Reject {
			b = b.Reject(r)
		}
		for _, h := range f.Hint {
			b = b.Hint(h)
		}
		if f.Confidential {
			b = b.Confidential()
		}
		if f.Conclude {
			b = b.Conclude()
		}
		for _, cast := range f.Casts {
			if err := applyCast(b, cast); err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
		}
	}

	c, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build collection: %w", err)
	}
	return c, nil
}

func applyRole(b *builder.Builder, role *yamlRole) {
	if role == nil {
		return
	}
	if role.Type != "" {
		b.Type(role.Type)
	}
	for _, t := range role.Traits {
		b.Trait(t)
	}
	for name, desc := range role.Possible {
		b.TraitPossible(name, desc)
	}
}

// applyCast maps one YAML cast entry onto the matching builder.Builder
// .As* method. kind selects the coercion; name/prompt override the
// method's default when non-empty.
func applyCast(b *builder.Builder, cast yamlCast) error {
	args := func() []string {
		if cast.Name == "" && cast.Prompt == "" {
			return nil
		}
		if cast.Prompt == "" {
			return []string{cast.Name}
		}
		return []string{cast.Name, cast.Prompt}
	}

	switch cast.Kind {
	case "int":
		b.AsInt(args()...)
	case "float":
		b.AsFloat(args()...)
	case "bool":
		b.AsBool(args()...)
	case "percent":
		b.AsPercent(args()...)
	case "list":
		b.AsList(args()...)
	case "set":
		b.AsSet(args()...)
	case "dict":
		b.AsDict(args()...)
	case "str":
		if cast.Name == "" {
			return fmt.Errorf("cast kind %q requires a name", cast.Kind)
		}
		b.AsStr(cast.Name, cast.Prompt)
	case "lang":
		if cast.Name == "" {
			return fmt.Errorf("cast kind %q requires a name (the language code)", cast.Kind)
		}
		if cast.Prompt == "" {
			b.AsLang(cast.Name)
		} else {
			b.AsLang(cast.Name, cast.Prompt)
		}
	case "one":
		b.AsOne(cast.Name, cast.Choices...)
	case "maybe":
		b.AsMaybe(cast.Name, cast.Choices...)
	case "multi":
		b.AsMulti(cast.Name, cast.Choices...)
	case "any":
		b.AsAny(cast.Name, cast.Choices...)
	default:
		return fmt.Errorf("unknown cast kind %q", cast.Kind)
	}
	return nil
}
