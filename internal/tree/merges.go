package tree

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/willdurand/scriptworker-scripts/internal/tasks"
)

const (
	versionFile    = "browser/config/version.txt"
	shippedLocales = "browser/locales/shipped-locales"
)

// MergeBehavior describes one merge-day flavor: the uplift direction, the
// tags it lays down and the rebranding applied to the target branch. Tag
// patterns take the major version as their %d argument.
type MergeBehavior struct {
	FromRepo   string
	ToRepo     string
	FromBranch string
	ToBranch   string

	BaseTag string
	EndTag  string

	// Files rewritten to the bare next version, and files rewritten to the
	// next version plus VersionSuffix.
	VersionFiles       []string
	VersionFilesSuffix []string
	VersionSuffix      string

	CopyFiles     [][2]string
	Replacements  [][3]string
	RemoveLocales []string

	MergeOldHead bool
}

var mergeBehaviors = map[string]MergeBehavior{
	"central_to_beta": {
		FromRepo:   "https://hg.mozilla.org/mozilla-central",
		ToRepo:     "https://hg.mozilla.org/releases/mozilla-beta",
		FromBranch: "central",
		ToBranch:   "beta",
		BaseTag:    "FIREFOX_BETA_%d_BASE",
		EndTag:     "FIREFOX_BETA_%d_END",
		VersionFiles: []string{
			"browser/config/version.txt",
			"config/milestone.txt",
		},
		VersionFilesSuffix: []string{
			"browser/config/version_display.txt",
		},
		VersionSuffix: "b1",
		Replacements: [][3]string{
			{
				"build/mozconfig.common",
				"MOZ_REQUIRE_SIGNING=${MOZ_REQUIRE_SIGNING-0}",
				"MOZ_REQUIRE_SIGNING=${MOZ_REQUIRE_SIGNING-1}",
			},
		},
		MergeOldHead: true,
	},
	"beta_to_release": {
		FromRepo:   "https://hg.mozilla.org/releases/mozilla-beta",
		ToRepo:     "https://hg.mozilla.org/releases/mozilla-release",
		FromBranch: "beta",
		ToBranch:   "release",
		BaseTag:    "FIREFOX_RELEASE_%d_BASE",
		EndTag:     "FIREFOX_RELEASE_%d_END",
		VersionFilesSuffix: []string{
			"browser/config/version_display.txt",
		},
		CopyFiles: [][2]string{
			{"browser/config/version.txt", "browser/config/version_display.txt"},
		},
		RemoveLocales: []string{"ja-JP-mac"},
		MergeOldHead:  true,
	},
	"release_to_esr": {
		FromRepo:   "https://hg.mozilla.org/releases/mozilla-release",
		ToRepo:     "https://hg.mozilla.org/releases/mozilla-esr",
		FromBranch: "release",
		ToBranch:   "esr",
		BaseTag:    "FIREFOX_ESR_%d_BASE",
		VersionFilesSuffix: []string{
			"browser/config/version_display.txt",
		},
		VersionSuffix: "esr",
		Replacements: [][3]string{
			{
				"build/mozconfig.common",
				"ACCEPTED_MAR_CHANNEL_IDS=firefox-mozilla-release",
				"ACCEPTED_MAR_CHANNEL_IDS=firefox-mozilla-esr",
			},
		},
	},
}

// RepoRevision is a pushed head, named by repository URL.
type RepoRevision struct {
	Repo     string
	Revision string
}

// Replace substitutes every occurrence of from with to inside the file. A
// file that does not contain from is an error.
func Replace(path, from, to string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	text := string(data)
	replaced := strings.ReplaceAll(text, from, to)
	if replaced == text {
		return fmt.Errorf("%s does not contain %q", path, from)
	}

	return os.WriteFile(path, []byte(replaced), 0666)
}

// TouchClobberFile rewrites the repository CLOBBER file, keeping comments
// and blank lines and replacing the free-form reason with a merge-day entry.
func TouchClobberFile(repoPath string) error {
	clobberFile := filepath.Join(repoPath, "CLOBBER")
	data, err := os.ReadFile(clobberFile)
	if err != nil {
		return err
	}

	var contents strings.Builder
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			contents.WriteString(line)
			contents.WriteString("\n")
		}
	}
	contents.WriteString(fmt.Sprintf("Merge day clobber %s", time.Now().Format("2006-01-02")))

	return os.WriteFile(clobberFile, []byte(contents.String()), 0666)
}

// RemoveLocales drops the lines of a locales file whose first field is one
// of the given locales. Lines may carry metadata after the locale code.
func RemoveLocales(path string, locales []string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	removals := make(map[string]bool, len(locales))
	for _, locale := range locales {
		removals[locale] = true
	}

	var kept strings.Builder
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		locale := strings.SplitN(line, " ", 2)[0]
		if removals[locale] {
			continue
		}
		kept.WriteString(line)
		kept.WriteString("\n")
	}

	return os.WriteFile(path, []byte(kept.String()), 0666)
}

var versionSuffixPattern = regexp.MustCompile(`(a1|b\d+|esr\d*)$`)

// nextVersion strips the channel suffix of a version string and appends the
// given one, e.g. ("89.0a1", "b1") -> "89.0b1".
func nextVersion(version, suffix string) string {
	return versionSuffixPattern.ReplaceAllString(version, "") + suffix
}

func majorVersion(version string) (int, error) {
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0, fmt.Errorf("cannot parse major version from %q: %w", version, err)
	}
	return n, nil
}

func readVersion(repoPath string) (string, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, versionFile))
	if err != nil {
		return "", fmt.Errorf("failed to read version file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func bumpVersion(repoPath, relPath, newVersion string) error {
	path := filepath.Join(repoPath, relPath)
	if _, err := os.Stat(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(newVersion+"\n"), 0666)
}

// ApplyRebranding performs the target-branch edits of a merge: version
// bumps, file copies, replacements, locale removal, and the clobber touch.
func ApplyRebranding(repoPath string, behavior MergeBehavior, version string) error {
	slog.Info("Rebranding", "from", behavior.FromBranch, "to", behavior.ToBranch)

	base := nextVersion(version, "")
	for _, relPath := range behavior.VersionFiles {
		if err := bumpVersion(repoPath, relPath, base); err != nil {
			return fmt.Errorf("failed to bump %s: %w", relPath, err)
		}
	}
	suffixed := nextVersion(version, behavior.VersionSuffix)
	for _, relPath := range behavior.VersionFilesSuffix {
		if err := bumpVersion(repoPath, relPath, suffixed); err != nil {
			return fmt.Errorf("failed to bump %s: %w", relPath, err)
		}
	}

	for _, pair := range behavior.CopyFiles {
		data, err := os.ReadFile(filepath.Join(repoPath, pair[0]))
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", pair[0], err)
		}
		if err := os.WriteFile(filepath.Join(repoPath, pair[1]), data, 0666); err != nil {
			return fmt.Errorf("failed to copy to %s: %w", pair[1], err)
		}
	}

	for _, replacement := range behavior.Replacements {
		if err := Replace(filepath.Join(repoPath, replacement[0]), replacement[1], replacement[2]); err != nil {
			return err
		}
	}

	if len(behavior.RemoveLocales) > 0 {
		if err := RemoveLocales(filepath.Join(repoPath, shippedLocales), behavior.RemoveLocales); err != nil {
			return err
		}
	}

	return TouchClobberFile(repoPath)
}

// Merge performs a flavored merge-day uplift in the checkout at repoPath.
// It returns the (repo, revision) pairs of the touched heads for flavors
// that lay down an end tag, nil otherwise.
func Merge(ctx context.Context, runner Runner, flavor, repoPath string) ([]RepoRevision, error) {
	behavior, ok := mergeBehaviors[flavor]
	if !ok {
		return nil, tasks.NewVerificationError(fmt.Sprintf("unsupported merge flavor %q", flavor))
	}

	if err := runner.Run(ctx, repoPath, "pull", behavior.FromRepo); err != nil {
		return nil, err
	}
	if err := runner.Run(ctx, repoPath, "update", "-C", behavior.FromBranch); err != nil {
		return nil, err
	}
	fromRev, err := runner.Revision(ctx, repoPath, behavior.FromBranch)
	if err != nil {
		return nil, err
	}

	version, err := readVersion(repoPath)
	if err != nil {
		return nil, err
	}
	major, err := majorVersion(version)
	if err != nil {
		return nil, err
	}

	baseTag := fmt.Sprintf(behavior.BaseTag, major)
	err = runner.Run(ctx, repoPath, "tag", "-m", fmt.Sprintf("Added tag %s for changeset %s", baseTag, fromRev), "-r", fromRev, baseTag)
	if err != nil {
		return nil, err
	}

	var oldHead string
	if behavior.EndTag != "" {
		if err := runner.Run(ctx, repoPath, "pull", behavior.ToRepo); err != nil {
			return nil, err
		}
		oldHead, err = runner.Revision(ctx, repoPath, behavior.ToBranch)
		if err != nil {
			return nil, err
		}
		endTag := fmt.Sprintf(behavior.EndTag, major-1)
		err = runner.Run(ctx, repoPath, "tag", "-m", fmt.Sprintf("Added tag %s for changeset %s", endTag, oldHead), "-r", oldHead, endTag)
		if err != nil {
			return nil, err
		}
	}

	if behavior.MergeOldHead && oldHead != "" {
		if err := runner.Run(ctx, repoPath, "debugsetparents", fromRev, oldHead); err != nil {
			return nil, err
		}
	}

	if err := ApplyRebranding(repoPath, behavior, version); err != nil {
		return nil, err
	}

	err = runner.Run(ctx, repoPath, "commit", "-m", "Update configs. IGNORE BROKEN CHANGESETS CLOSED TREE NO BUG a=release ba=release")
	if err != nil {
		return nil, err
	}
	toRev, err := runner.Revision(ctx, repoPath, behavior.ToBranch)
	if err != nil {
		return nil, err
	}

	if behavior.EndTag == "" {
		return nil, nil
	}
	return []RepoRevision{
		{Repo: behavior.FromRepo, Revision: fromRev},
		{Repo: behavior.ToRepo, Revision: toRev},
	}, nil
}
