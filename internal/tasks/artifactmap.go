package tasks

import (
	"path"
	"strings"
)

// CheckArtifactMapVersions verifies that every destination in the artifact
// map lands in the folder of the payload version and carries the version in
// its filename. A release artifact in the wrong version folder is a release
// integrity failure, so any mismatch is fatal. All mismatches are reported
// together.
func (p *Payload) CheckArtifactMapVersions() error {
	var messages []string
	for _, entry := range p.ArtifactMap {
		for _, cfg := range entry.Paths {
			for _, dest := range cfg.Destinations {
				folder, file := path.Split(dest)
				lastFolder := path.Base(folder)
				if lastFolder != p.Version {
					messages = append(messages,
						"name of last folder '"+lastFolder+"' in path '"+dest+"' does not match payload version '"+p.Version+"'")
				}
				if !strings.Contains(file, p.Version) {
					messages = append(messages,
						"cannot find version '"+p.Version+"' in file name '"+file+"'; path under test: "+dest)
				}
			}
		}
	}
	if len(messages) > 0 {
		return NewVerificationError(messages...)
	}
	return nil
}

// FileConfig returns the artifact map entry for the (taskId, locale, path)
// triple. A missing entry is a fatal resource error: it means an upstream
// artifact has nowhere to go.
func (p *Payload) FileConfig(taskID, locale, artifactPath string) (PathConfig, error) {
	for _, entry := range p.ArtifactMap {
		if entry.TaskID != taskID || entry.Locale != locale {
			continue
		}
		if cfg, ok := entry.Paths[artifactPath]; ok {
			return cfg, nil
		}
	}
	return PathConfig{}, verificationErrorf("no artifact map entry for %s/%s %s", taskID, locale, artifactPath)
}

// FullArtifactMapPath finds the artifact map path ending in basePath for the
// given locale, or "" when no entry matches.
func (p *Payload) FullArtifactMapPath(basePath, locale string) string {
	for _, entry := range p.ArtifactMap {
		if entry.Locale != locale {
			continue
		}
		for mapPath := range entry.Paths {
			if strings.HasSuffix(mapPath, basePath) {
				return mapPath
			}
		}
	}
	return ""
}
