package mover

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/willdurand/scriptworker-scripts/internal/platform"
)

// CandidatesPrefix returns the storage key prefix of a candidates build,
// e.g. "pub/firefox/candidates/100.0-candidates/build1/".
func CandidatesPrefix(product, version string, buildNumber int) (string, error) {
	path, err := platform.ProductPath(product)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%scandidates/%s-candidates/build%d/", path, version, buildNumber), nil
}

// ReleasesPrefix returns the storage key prefix of a public release.
func ReleasesPrefix(product, version string) (string, error) {
	path, err := platform.ProductPath(product)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sreleases/%s/", path, version), nil
}

// PartnerCandidatesPrefix returns the partner repack staging prefix under a
// candidates prefix.
func PartnerCandidatesPrefix(candidatesPrefix, partner string) string {
	return fmt.Sprintf("%spartner-repacks/%s/v1/", candidatesPrefix, partner)
}

// PartnerReleasesPrefix returns the release prefix of a partner repack.
func PartnerReleasesPrefix(product, version, partner string) (string, error) {
	path, err := platform.ProductPath(product)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sreleases/partners/%s/%s/", path, partner, version), nil
}

// releaseExcludes identify candidate keys that must never be copied to the
// public release area. A key is excluded when it matches any pattern.
var releaseExcludes = []*regexp.Regexp{
	regexp.MustCompile(`^.*tests.*$`),
	regexp.MustCompile(`^.*crashreporter.*$`),
	regexp.MustCompile(`^.*\.log$`),
	regexp.MustCompile(`^.*\.txt$`),
	regexp.MustCompile(`^.*/partner-repacks.*$`),
	regexp.MustCompile(`^.*\.checksums(\.asc)?$`),
	regexp.MustCompile(`^.*/logs/.*$`),
	regexp.MustCompile(`^.*json$`),
	regexp.MustCompile(`^.*/host.*$`),
	regexp.MustCompile(`^.*/mar-tools/.*$`),
	regexp.MustCompile(`^.*robocop.apk$`),
	regexp.MustCompile(`^.*contrib.*`),
	regexp.MustCompile(`^.*/beetmover-checksums/.*$`),
}

// zipExclude bars all zip archives except the jsshell ones. The jsshell
// exception cannot be a lookahead in RE2, so it is applied in code.
var zipExclude = regexp.MustCompile(`^.*\.zip(\.asc)?$`)

// MatchesExclude reports whether a candidates key is barred from promotion
// to releases.
func MatchesExclude(key string) bool {
	if zipExclude.MatchString(key) && !strings.Contains(key, "jsshell-") {
		return true
	}
	for _, exclude := range releaseExcludes {
		if exclude.MatchString(key) {
			return true
		}
	}
	return false
}

// PartnerMatch returns the partner whose repack staging prefix the key lives
// under, or "" when the key belongs to no listed partner.
func PartnerMatch(key, candidatesPrefix string, partners []string) string {
	for _, partner := range partners {
		if strings.HasPrefix(key, PartnerCandidatesPrefix(candidatesPrefix, partner)) {
			return partner
		}
	}
	return ""
}
