package toolschema

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/chatfield-dev/chatfield/chatmodel"
)

// Validate compiles a generated tool's InputSchema with
// santhosh-tekuri/jsonschema to confirm it is well-formed JSON Schema, and
// optionally validates a sample payload against it. Pass a nil sample to
// only check compilability.
func Validate(def chatmodel.ToolDefinition, sample map[string]any) error {
	raw, err := json.Marshal(def.InputSchema)
	if err != nil {
		return fmt.Errorf("toolschema: marshal schema for %s: %w", def.Name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("toolschema: unmarshal schema for %s: %w", def.Name, err)
	}

	c := jsonschema.NewCompiler()
	url := "mem://" + def.Name + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return fmt.Errorf("toolschema: add resource for %s: %w", def.Name, err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return fmt.Errorf("toolschema: compile schema for %s: %w", def.Name, err)
	}
	if sample == nil {
		return nil
	}
	if err := schema.Validate(sample); err != nil {
		return fmt.Errorf("toolschema: sample does not satisfy %s: %w", def.Name, err)
	}
	return nil
}
