package tasks

// Action is the release operation requested by a task, derived from its
// scopes. The set is closed: ParseAction rejects anything it does not know.
type Action string

const (
	ActionPushToNightly      Action = "push-to-nightly"
	ActionPushToCandidates   Action = "push-to-candidates"
	ActionPushToReleases     Action = "push-to-releases"
	ActionDirectPushToBucket Action = "direct-push-to-bucket"
	ActionPushToPartner      Action = "push-to-partner"
	ActionPushToMaven        Action = "push-to-maven"
	ActionImportArtifacts    Action = "import-artifacts"
)

var knownActions = map[Action]bool{
	ActionPushToNightly:      true,
	ActionPushToCandidates:   true,
	ActionPushToReleases:     true,
	ActionDirectPushToBucket: true,
	ActionPushToPartner:      true,
	ActionPushToMaven:        true,
	ActionImportArtifacts:    true,
}

// ParseAction converts a raw action identifier into an Action.
func ParseAction(raw string) (Action, error) {
	action := Action(raw)
	if !knownActions[action] {
		return "", verificationErrorf("unknown action %q", raw)
	}
	return action, nil
}

func (a Action) String() string { return string(a) }

// IsPromotion reports whether the action stages versioned builds into the
// candidates area. Promotion actions require version and build_number in the
// payload.
func (a Action) IsPromotion() bool { return a == ActionPushToCandidates }

// IsRelease reports whether the action publishes candidates to the public
// release area.
func (a Action) IsRelease() bool { return a == ActionPushToReleases }

// IsDirectRelease reports whether the action pushes straight to a bucket,
// driven by an explicit artifact map instead of a rendered template.
func (a Action) IsDirectRelease() bool { return a == ActionDirectPushToBucket }

// IsPartner reports whether the action publishes partner repacks.
func (a Action) IsPartner() bool { return a == ActionPushToPartner }

// IsMaven reports whether the action uploads to a maven repository.
func (a Action) IsMaven() bool { return a == ActionPushToMaven }

// IsImportArtifacts reports whether the action imports already uploaded
// objects into a package repository.
func (a Action) IsImportArtifacts() bool { return a == ActionImportArtifacts }

// BucketSuffix returns the trailing segment of the action name, used to
// compose the manifest template key ("push-to-candidates" -> "candidates").
func (a Action) BucketSuffix() string {
	s := string(a)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '-' {
			return s[i+1:]
		}
	}
	return s
}
