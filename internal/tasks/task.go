// Package tasks defines the publish task model and the validation applied to
// it before any artifact is moved: scope resolution, payload schema checks,
// release property normalization and artifact map consistency rules.
package tasks

import (
	"fmt"
	"strings"

	"github.com/willdurand/scriptworker-scripts/internal/platform"
)

// Task is the immutable input descriptor for one publish run.
type Task struct {
	Scopes   []string          `json:"scopes"`
	Payload  Payload           `json:"payload"`
	Tags     map[string]string `json:"tags,omitempty"`
	Extra    Extra             `json:"extra,omitempty"`
	Metadata Metadata          `json:"metadata,omitempty"`
}

// Payload carries the action specific fields. Which of them must be present
// depends on the action and is enforced by the payload schema.
type Payload struct {
	Product           string             `json:"product,omitempty"`
	Version           string             `json:"version,omitempty"`
	BuildNumber       int                `json:"build_number,omitempty"`
	UploadDate        string             `json:"upload_date,omitempty"`
	Locale            string             `json:"locale,omitempty"`
	Partners          []string           `json:"partners,omitempty"`
	Sources           []string           `json:"sources,omitempty"`
	ReleaseProperties *ReleaseProperties `json:"releaseProperties,omitempty"`
	UpstreamArtifacts []UpstreamArtifact `json:"upstreamArtifacts,omitempty"`
	ArtifactMap       []ArtifactMapEntry `json:"artifactMap,omitempty"`
}

// ReleaseProperties is the build metadata attached by the upstream build job.
type ReleaseProperties struct {
	AppName       string `json:"appName"`
	AppVersion    string `json:"appVersion"`
	Branch        string `json:"branch"`
	BuildID       string `json:"buildid"`
	Platform      string `json:"platform"`
	StagePlatform string `json:"stage_platform,omitempty"`
}

// UpstreamArtifact references files produced by an upstream task.
type UpstreamArtifact struct {
	TaskID string   `json:"taskId"`
	Locale string   `json:"locale,omitempty"`
	Paths  []string `json:"paths"`
}

// ArtifactMapEntry enumerates explicit source to destination mappings for
// actions that bypass template rendering.
type ArtifactMapEntry struct {
	TaskID string                `json:"taskId"`
	Locale string                `json:"locale"`
	Paths  map[string]PathConfig `json:"paths"`
}

// PathConfig holds the destinations for one source path.
type PathConfig struct {
	Destinations  []string `json:"destinations"`
	ChecksumsPath string   `json:"checksums_path,omitempty"`
}

// Extra carries optional task annotations, such as partial update metadata.
type Extra struct {
	Partials []Partial `json:"partials,omitempty"`
}

// Partial describes one partial-update artifact.
type Partial struct {
	ArtifactName string `json:"artifact_name"`
	Locale       string `json:"locale,omitempty"`
	From         string `json:"previousBuildNumber,omitempty"`
	Version      string `json:"previousVersion,omitempty"`
}

// Metadata identifies where the task definition came from.
type Metadata struct {
	Source string `json:"source,omitempty"`
}

// DefaultLocale is assumed whenever an upstream artifact does not declare one.
const DefaultLocale = "en-US"

// ReleaseProps returns the task's release properties with the platform
// normalized: Platform holds the canonical release platform, StagePlatform
// the raw value the build system emitted.
func (t *Task) ReleaseProps() (*ReleaseProperties, error) {
	if t.Payload.ReleaseProperties == nil {
		return nil, NewVerificationError("could not determine release props from task payload")
	}

	props := *t.Payload.ReleaseProperties
	props.StagePlatform = props.Platform
	props.Platform = platform.Normalize(props.StagePlatform)
	return &props, nil
}

// Kind returns the task's kind tag, or "" when untagged.
func (t *Task) Kind() string {
	return t.Tags["kind"]
}

// VerificationError is a fatal, non retryable input error. Validation steps
// that can detect several violations at once batch them into a single error
// rather than failing on the first.
type VerificationError struct {
	Messages []string
}

// NewVerificationError builds a VerificationError from one or more messages.
func NewVerificationError(messages ...string) *VerificationError {
	return &VerificationError{Messages: messages}
}

func (e *VerificationError) Error() string {
	return strings.Join(e.Messages, "\n")
}

func verificationErrorf(format string, args ...any) *VerificationError {
	return NewVerificationError(fmt.Sprintf(format, args...))
}
