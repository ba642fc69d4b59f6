package tasks

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// schemaForAction picks the payload schema file by action category.
func schemaForAction(action Action) string {
	switch {
	case action.IsRelease():
		return "release.json"
	case action.IsMaven():
		return "maven.json"
	case action.IsDirectRelease():
		return "artifact_map.json"
	case action.IsImportArtifacts():
		return "import_artifacts.json"
	default:
		return "default.json"
	}
}

// ValidatePayload checks the task payload against the JSON schema for the
// resolved action. Schema violations are fatal input errors.
func (t *Task) ValidatePayload(action Action) error {
	name := schemaForAction(action)
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return fmt.Errorf("reading payload schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	resource := "inmemory://" + name
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("adding payload schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return fmt.Errorf("compiling payload schema %s: %w", name, err)
	}

	// Round-trip through JSON so the validator sees plain maps and slices.
	encoded, err := json.Marshal(t.Payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	var payload any
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}

	if err := compiled.Validate(payload); err != nil {
		return verificationErrorf("task payload failed schema validation (%s): %v", name, err)
	}
	return nil
}
