package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// UpstreamArtifactSet maps locale -> artifact name -> absolute local path.
type UpstreamArtifactSet map[string]map[string]string

// Locales returns the sorted, de-duplicated locales declared across the
// task's upstream artifacts. Artifacts without an explicit locale do not
// contribute.
func (p *Payload) Locales() []string {
	seen := map[string]bool{}
	var locales []string
	for _, artifact := range p.UpstreamArtifacts {
		if artifact.Locale == "" || seen[artifact.Locale] {
			continue
		}
		seen[artifact.Locale] = true
		locales = append(locales, artifact.Locale)
	}
	sort.Strings(locales)
	return locales
}

// UpstreamArtifacts resolves the task's upstream artifact references against
// the chain-of-trust directory under workDir and groups them by locale.
// Every referenced file must exist on disk. When preserveFullPaths is false
// the artifacts are keyed by basename, which is what template driven actions
// expect.
func (t *Task) UpstreamArtifacts(workDir string, preserveFullPaths bool) (UpstreamArtifactSet, error) {
	artifacts := UpstreamArtifactSet{}
	for _, upstream := range t.Payload.UpstreamArtifacts {
		locale := upstream.Locale
		if locale == "" {
			locale = DefaultLocale
		}
		if artifacts[locale] == nil {
			artifacts[locale] = map[string]string{}
		}

		taskID, err := ValidateTaskID(upstream.TaskID)
		if err != nil {
			return nil, NewVerificationError(err.Error())
		}

		for _, path := range upstream.Paths {
			absPath := filepath.Join(workDir, "cot", taskID, filepath.FromSlash(path))
			if _, err := os.Stat(absPath); err != nil {
				return nil, fmt.Errorf("upstream artifact %s of task %s not found: %w", path, taskID, err)
			}

			if preserveFullPaths {
				artifacts[locale][path] = absPath
			} else {
				artifacts[locale][filepath.Base(absPath)] = absPath
			}
		}
	}
	return artifacts, nil
}
