// Package mover implements the destination resolution engine: it selects and
// renders the manifest template for a task, computes the storage key prefixes
// for candidates, releases and partner repacks, and prepares the run's output
// artifacts (checksums manifest, update manifest).
package mover

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/willdurand/scriptworker-scripts/internal/platform"
	"github.com/willdurand/scriptworker-scripts/internal/tasks"
)

const uploadDateLayout = "2006-01-02-15-04-05"

// TemplateArgs is the variable bag used to select and render a manifest
// template.
type TemplateArgs struct {
	UploadDate       string
	Version          string
	BuildNumber      int
	Branch           string
	Product          string
	StagePlatform    string
	Platform         string
	BuildID          string
	FilenamePlatform string
	Locales          []string
	TemplateKey      string
	Partials         map[string]tasks.Partial
}

// nonRepackLocales are the locales shipped by the primary build; anything
// else is a localized repack and selects the _repacks template family.
var nonRepackLocales = map[string]bool{"en-US": true, "multi": true}

// ParseUploadDate normalizes the payload upload_date to the path form
// "2006/2006-01-02-15-04-05" (UTC). The input is either a Unix epoch or a
// slash delimited path whose last segment is an explicit datestamp.
func ParseUploadDate(raw string) (string, error) {
	var moment time.Time
	if epoch, err := strconv.ParseFloat(raw, 64); err == nil {
		moment = time.Unix(int64(epoch), 0).UTC()
	} else {
		segments := strings.Split(raw, "/")
		last := segments[len(segments)-1]
		moment, err = time.Parse(uploadDateLayout, last)
		if err != nil {
			return "", fmt.Errorf("cannot parse upload date %q: %w", raw, err)
		}
	}
	return fmt.Sprintf("%d/%s", moment.Year(), moment.Format(uploadDateLayout)), nil
}

// BuildTemplateArgs assembles the variables used to pick and render the
// manifest template for a task.
func BuildTemplateArgs(task *tasks.Task, action tasks.Action) (*TemplateArgs, error) {
	props, err := task.ReleaseProps()
	if err != nil {
		return nil, err
	}

	uploadDate, err := ParseUploadDate(task.Payload.UploadDate)
	if err != nil {
		return nil, err
	}

	args := &TemplateArgs{
		UploadDate:       uploadDate,
		Version:          props.AppVersion,
		Branch:           props.Branch,
		Product:          props.AppName,
		StagePlatform:    props.StagePlatform,
		Platform:         props.Platform,
		BuildID:          props.BuildID,
		FilenamePlatform: platform.NormalizeFilename(props.StagePlatform),
		Partials:         partialsByArtifact(task),
	}

	// Promotion, release and partner pushes are versioned releases, not
	// nightlies: version and build number come from the payload.
	if action.IsPromotion() || action.IsRelease() || action.IsPartner() {
		args.Version = task.Payload.Version
		args.BuildNumber = task.Payload.BuildNumber
	}

	upstreamLocales := task.Payload.Locales()
	payloadLocale := task.Payload.Locale
	switch {
	case payloadLocale != "" && len(upstreamLocales) > 0:
		if err := checkLocaleConsistency(payloadLocale, upstreamLocales); err != nil {
			return nil, err
		}
		args.Locales = upstreamLocales
	case len(upstreamLocales) > 0:
		args.Locales = upstreamLocales
	case payloadLocale != "":
		args.Locales = []string{payloadLocale}
	}

	product, err := ProductName(task, action, true)
	if err != nil {
		return nil, err
	}

	args.TemplateKey = fmt.Sprintf("%s_%s", product, action.BucketSuffix())
	if len(args.Locales) > 0 && isRepackLocaleSet(args.Locales) {
		args.TemplateKey += "_repacks"
	}

	return args, nil
}

func isRepackLocaleSet(locales []string) bool {
	for _, locale := range locales {
		if nonRepackLocales[locale] {
			return false
		}
	}
	return true
}

func checkLocaleConsistency(payloadLocale string, upstreamLocales []string) error {
	if len(upstreamLocales) > 1 {
		return tasks.NewVerificationError(fmt.Sprintf(
			"task.payload.locale is defined (%q) but too many locales set in task.payload.upstreamArtifacts (%v)",
			payloadLocale, upstreamLocales))
	}
	if upstreamLocales[0] != payloadLocale {
		return tasks.NewVerificationError(fmt.Sprintf(
			"task.payload.locale (%q) does not match the one set in task.payload.upstreamArtifacts (%q)",
			payloadLocale, upstreamLocales[0]))
	}
	return nil
}

func partialsByArtifact(task *tasks.Task) map[string]tasks.Partial {
	partials := make(map[string]tasks.Partial, len(task.Extra.Partials))
	for _, partial := range task.Extra.Partials {
		partials[partial.ArtifactName] = partial
	}
	return partials
}
