package mover

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/willdurand/scriptworker-scripts/internal/checksums"
	"github.com/willdurand/scriptworker-scripts/internal/tasks"
)

// balrogManifestPath is where the update-server manifest lands, relative to
// the run's artifact directory.
const balrogManifestPath = "public/manifest.json"

// BuildhubArtifact is the build metadata file shipped next to installers.
const BuildhubArtifact = "buildhub.json"

// BalrogEntry is one update-server submission record.
type BalrogEntry struct {
	AppName      string         `json:"appName"`
	AppVersion   string         `json:"appVersion"`
	Branch       string         `json:"branch"`
	BuildID      string         `json:"buildid"`
	HashType     string         `json:"hashType"`
	Locale       string         `json:"locale"`
	Platform     string         `json:"platform"`
	CompleteInfo []BalrogUpdate `json:"completeInfo,omitempty"`
	PartialInfo  []BalrogUpdate `json:"partialInfo,omitempty"`
}

// BalrogUpdate describes one update artifact (complete or partial mar).
type BalrogUpdate struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
	From string `json:"from_buildid,omitempty"`
}

func writeFile(path string, contents []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return nil
}

// WriteChecksums renders the checksums manifest and writes it under the
// artifact directory, using the task kind's custom filename when one is
// configured.
func WriteChecksums(artifactDir, taskKind string, manifest checksums.Manifest, algorithms []string) (string, error) {
	relative := checksums.Filename(taskKind)
	path := filepath.Join(artifactDir, filepath.FromSlash(relative))
	if err := writeFile(path, []byte(manifest.Render(algorithms))); err != nil {
		return "", err
	}
	return path, nil
}

// WriteBalrogManifest serializes the update-server entries to their fixed
// location under the artifact directory.
func WriteBalrogManifest(artifactDir string, entries []BalrogEntry) error {
	encoded, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding balrog manifest: %w", err)
	}
	return writeFile(filepath.Join(artifactDir, filepath.FromSlash(balrogManifestPath)), encoded)
}

// UpdatedBuildhub reads a buildhub.json file and refreshes its download
// size, date and URL from the resolved destination of the installer it
// accompanies. The destination comes from the artifact map when the action
// carries one, from the rendered manifest otherwise.
func UpdatedBuildhub(buildhubPath, installerPath, installerName, locale, urlPrefix string, manifest *Manifest, payload *tasks.Payload) (map[string]any, error) {
	raw, err := os.ReadFile(buildhubPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", buildhubPath, err)
	}
	var contents map[string]any
	if err := json.Unmarshal(raw, &contents); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", buildhubPath, err)
	}

	var destination string
	if len(payload.ArtifactMap) > 0 {
		taskID, err := tasks.TaskIDFromPath(filepath.ToSlash(installerPath))
		if err != nil {
			return nil, err
		}
		cfg, err := payload.FileConfig(taskID, locale, payload.FullArtifactMapPath(installerName, locale))
		if err != nil {
			return nil, err
		}
		destination = cfg.Destinations[0]
	} else {
		entry, ok := manifest.Mapping[locale][installerName]
		if !ok || len(entry.Destinations) == 0 {
			return nil, fmt.Errorf("no destination resolved for installer %s (%s)", installerName, locale)
		}
		destination = joinURLPath(manifest.S3BucketPath, entry.Destinations[0])
	}

	info, err := os.Stat(installerPath)
	if err != nil {
		return nil, fmt.Errorf("sizing installer %s: %w", installerPath, err)
	}

	download, ok := contents["download"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s has no download section", buildhubPath)
	}
	download["size"] = info.Size()
	download["date"] = time.Now().UTC().Format(time.RFC3339)
	download["url"] = joinURL(urlPrefix, destination)

	return contents, nil
}

func joinURLPath(prefix, suffix string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(suffix, "/")
}

func joinURL(prefix, path string) string {
	escaped := (&url.URL{Path: path}).EscapedPath()
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(escaped, "/")
}
