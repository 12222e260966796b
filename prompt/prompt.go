// Package prompt renders the system, confidential-digest, and
// conclude-digest prompts from a collection.Collection. Rendering is a pure
// function of the Collection and mode: identical inputs always produce
// identical bytes (spec.md §8 P3), since the template context is always
// built by walking the Collection's declaration-order field slice rather
// than its internal map.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/chatfield-dev/chatfield/collection"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// fieldView is the per-field data made available to templates.
type fieldView struct {
	Name         string
	Desc         string
	Must         []string
	Reject       []string
	Hint         []string
	Confidential bool
}

// systemView is the root template context for the normal system prompt.
type systemView struct {
	CollectionType string
	CollectionDesc string

	AliceType string
	BobType   string

	AliceTraits []string
	BobTraits   []string

	AlicePossibleTraits []traitView
	BobPossibleTraits   []traitView

	Fields []fieldView

	Labels   string
	HasRules bool
}

// traitView is the per-possible-trait data made available to templates.
// Active traits render as established facts; inactive ones render as
// candidates the model may activate via the update tool's possible_traits
// channel (spec.md §3's possible-trait lifecycle).
type traitView struct {
	Name        string
	Description string
	Active      bool
}

// confidentialView is the root template context for the confidential digest.
type confidentialView struct {
	CollectionType string
	Unfilled       []fieldView
}

// concludeView is the root template context for the conclude digest.
type concludeView struct {
	CollectionType string
	Fields         []fieldView
}

func toFieldView(f *collection.Field) fieldView {
	return fieldView{
		Name:         f.Name,
		Desc:         f.Desc,
		Must:         f.Specs.Must,
		Reject:       f.Specs.Reject,
		Hint:         f.Specs.Hint,
		Confidential: f.Specs.Confidential,
	}
}

// labels computes the human phrase describing which validation categories
// exist across a field set, per spec.md §4.2 ("Must", "Reject", or "Must"
// and "Reject", or empty).
func labels(fields []*collection.Field) (label string, hasRules bool) {
	var must, reject int
	for _, f := range fields {
		must += len(f.Specs.Must)
		reject += len(f.Specs.Reject)
	}
	switch {
	case must > 0 && reject > 0:
		return `"Must" and "Reject"`, true
	case must > 0:
		return `"Must"`, true
	case reject > 0:
		return `"Reject"`, true
	default:
		return "", false
	}
}

// System renders the normal system prompt for the given collection.
func System(c *collection.Collection) (string, error) {
	fields := c.NonConcludeFields()
	views := make([]fieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, toFieldView(f))
	}
	label, hasRules := labels(fields)
	v := systemView{
		CollectionType:      orDefault(c.Type, "collection"),
		CollectionDesc:      c.Desc,
		AliceType:           c.Roles.Alice.Type,
		BobType:             c.Roles.Bob.Type,
		AliceTraits:         c.Roles.Alice.Traits,
		BobTraits:           c.Roles.Bob.Traits,
		AlicePossibleTraits: toTraitViews(&c.Roles.Alice),
		BobPossibleTraits:   toTraitViews(&c.Roles.Bob),
		Fields:              views,
		Labels:              label,
		HasRules:            hasRules,
	}
	return render("system.tmpl", v)
}

// toTraitViews walks a role's possible traits in declaration order, so an
// activated trait is reflected back to the model on the next turn's system
// prompt render (spec.md §3).
func toTraitViews(r *collection.Role) []traitView {
	names := r.PossibleTraitsInOrder()
	views := make([]traitView, 0, len(names))
	for _, name := range names {
		t := r.PossibleTraits[name]
		views = append(views, traitView{Name: name, Description: t.Description, Active: t.Active})
	}
	return views
}

// ConfidentialDigest renders the one-shot confidential-digest prompt. Only
// the still-unfilled confidential fields are named, forcing the LLM's next
// tool call to cover exactly those fields.
func ConfidentialDigest(c *collection.Collection, unfilled []*collection.Field) (string, error) {
	views := make([]fieldView, 0, len(unfilled))
	for _, f := range unfilled {
		views = append(views, toFieldView(f))
	}
	v := confidentialView{
		CollectionType: orDefault(c.Type, "collection"),
		Unfilled:       views,
	}
	return render("confidential_digest.tmpl", v)
}

// ConcludeDigest renders the one-shot conclude-digest prompt naming every
// conclude field that must be synthesized from the transcript.
func ConcludeDigest(c *collection.Collection) (string, error) {
	fields := c.ConcludeFields()
	views := make([]fieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, toFieldView(f))
	}
	v := concludeView{
		CollectionType: orDefault(c.Type, "collection"),
		Fields:         views,
	}
	return render("conclude_digest.tmpl", v)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("prompt: render %s: %w", name, err)
	}
	return strings.TrimRight(buf.String(), "\n") + "\n", nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
