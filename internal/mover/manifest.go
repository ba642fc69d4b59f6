package mover

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"text/template"

	yaml "gopkg.in/yaml.v2"
)

//go:embed templates/*.yml
var templateFS embed.FS

// ErrNoTemplate reports a template key with no matching manifest template.
var ErrNoTemplate = errors.New("no manifest template")

// Manifest is the authoritative mapping from source artifacts to their
// destination keys, rendered fresh for every run.
type Manifest struct {
	Metadata     ManifestMetadata                    `yaml:"metadata"`
	S3BucketPath string                              `yaml:"s3_bucket_path"`
	Mapping      map[string]map[string]ManifestEntry `yaml:"mapping"`
}

// ManifestMetadata describes the template the manifest was rendered from.
type ManifestMetadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ManifestEntry lists where one artifact goes.
type ManifestEntry struct {
	Destinations         []string `yaml:"destinations"`
	UpdateBalrogManifest bool     `yaml:"update_balrog_manifest,omitempty"`
}

// Resolver renders manifest templates. It is stateless; the zero cost of
// re-rendering per run keeps every invocation independent of the last.
type Resolver struct {
	templates fs.FS
}

// NewResolver returns a Resolver over the templates compiled into the
// binary.
func NewResolver() *Resolver {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// The embedded tree always contains templates/.
		panic(err)
	}
	return &Resolver{templates: sub}
}

// NewResolverFromFS returns a Resolver over an arbitrary template tree.
func NewResolverFromFS(templates fs.FS) *Resolver {
	return &Resolver{templates: templates}
}

// Resolve renders the template selected by args.TemplateKey and parses the
// result. Rendering is strict: a template referencing a variable missing
// from args fails instead of producing a blank.
func (r *Resolver) Resolve(args *TemplateArgs) (*Manifest, error) {
	name := args.TemplateKey + ".yml"
	raw, err := fs.ReadFile(r.templates, name)
	if err != nil {
		return nil, fmt.Errorf("%w for key %q: %v", ErrNoTemplate, args.TemplateKey, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing manifest template %s: %w", name, err)
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, args); err != nil {
		return nil, fmt.Errorf("rendering manifest template %s: %w", name, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(rendered.Bytes(), &manifest); err != nil {
		return nil, fmt.Errorf("parsing rendered manifest %s: %w", name, err)
	}

	slog.Info("manifest generated", "template", name, "locales", len(manifest.Mapping))

	return &manifest, nil
}
