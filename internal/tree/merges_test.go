package tree

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willdurand/scriptworker-scripts/internal/tasks"
)

type fakeRunner struct {
	commands  [][]string
	revisions map[string]string
}

func (r *fakeRunner) Run(ctx context.Context, repoPath string, args ...string) error {
	r.commands = append(r.commands, args)
	return nil
}

func (r *fakeRunner) Revision(ctx context.Context, repoPath, branch string) (string, error) {
	if rev, ok := r.revisions[branch]; ok {
		return rev, nil
	}
	return "some_revision", nil
}

func writeRepoFile(t *testing.T, repo, relPath, content string) {
	path := filepath.Join(repo, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0777))
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
}

func readRepoFile(t *testing.T, repo, relPath string) string {
	data, err := os.ReadFile(filepath.Join(repo, filepath.FromSlash(relPath)))
	require.NoError(t, err)
	return string(data)
}

func setupRepo(t *testing.T) string {
	repo := t.TempDir()
	writeRepoFile(t, repo, "config/replaceme.txt", "dummytext")
	writeRepoFile(t, repo, "CLOBBER", "# A comment\n\nthiswillgetremoved")
	writeRepoFile(t, repo, "browser/config/version.txt", "52.0")
	return repo
}

func TestReplace(t *testing.T) {
	repo := setupRepo(t)
	path := filepath.Join(repo, "config", "replaceme.txt")

	require.NoError(t, Replace(path, "dummytext", "alsodummytext"))
	assert.Equal(t, "alsodummytext", readRepoFile(t, repo, "config/replaceme.txt"))
}

func TestReplaceMissingNeedle(t *testing.T) {
	repo := setupRepo(t)

	err := Replace(filepath.Join(repo, "config", "replaceme.txt"), "textnotfound", "alsodummytext")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain")
}

func TestReplaceMissingFile(t *testing.T) {
	repo := setupRepo(t)

	err := Replace(filepath.Join(repo, "config", "doesnotexist"), "dummytext", "52.5.0")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestTouchClobberFile(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, TouchClobberFile(repo))

	contents := readRepoFile(t, repo, "CLOBBER")
	assert.Contains(t, contents, "# A comment")
	assert.Contains(t, contents, "Merge day clobber")
	assert.NotContains(t, contents, "thiswillgetremoved")
}

func TestTouchClobberFileMissing(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, os.Remove(filepath.Join(repo, "CLOBBER")))

	require.Error(t, TouchClobberFile(repo))
}

func TestRemoveLocales(t *testing.T) {
	cases := []struct {
		name     string
		locales  []string
		removals []string
		expected []string
	}{
		{"no removals", []string{"aa", "bb somecomment", "cc", "dd"}, nil, []string{"aa", "bb somecomment", "cc", "dd"}},
		{"plain removal", []string{"aa", "bb", "cc", "dd"}, []string{"cc"}, []string{"aa", "bb", "dd"}},
		{"removal with metadata", []string{"aa", "bb", "cc somecomment", "dd"}, []string{"cc"}, []string{"aa", "bb", "dd"}},
		{"prefix does not match", []string{"aa", "bb", "cc", "dd"}, []string{"c"}, []string{"aa", "bb", "cc", "dd"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "locales")
			require.NoError(t, os.WriteFile(path, []byte(strings.Join(tc.locales, "\n")), 0666))

			require.NoError(t, RemoveLocales(path, tc.removals))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, strings.Split(strings.TrimRight(string(data), "\n"), "\n"))
		})
	}
}

func TestNextVersion(t *testing.T) {
	assert.Equal(t, "89.0b1", nextVersion("89.0a1", "b1"))
	assert.Equal(t, "89.0", nextVersion("89.0b7", ""))
	assert.Equal(t, "78.1.0esr", nextVersion("78.1.0", "esr"))
	assert.Equal(t, "78.1.0esr", nextVersion("78.1.0esr", "esr"))
}

func TestApplyRebranding(t *testing.T) {
	repo := setupRepo(t)
	writeRepoFile(t, repo, "browser/config/version.txt", "89.0a1")
	writeRepoFile(t, repo, "config/milestone.txt", "89.0a1")
	writeRepoFile(t, repo, "browser/config/version_display.txt", "89.0a1")
	writeRepoFile(t, repo, "build/mozconfig.common", "MOZ_REQUIRE_SIGNING=${MOZ_REQUIRE_SIGNING-0}\n")

	behavior := mergeBehaviors["central_to_beta"]
	require.NoError(t, ApplyRebranding(repo, behavior, "89.0a1"))

	assert.Equal(t, "89.0\n", readRepoFile(t, repo, "browser/config/version.txt"))
	assert.Equal(t, "89.0\n", readRepoFile(t, repo, "config/milestone.txt"))
	assert.Equal(t, "89.0b1\n", readRepoFile(t, repo, "browser/config/version_display.txt"))
	assert.Contains(t, readRepoFile(t, repo, "build/mozconfig.common"), "MOZ_REQUIRE_SIGNING=${MOZ_REQUIRE_SIGNING-1}")
	assert.Contains(t, readRepoFile(t, repo, "CLOBBER"), "Merge day clobber")
}

func TestMergeUnknownFlavor(t *testing.T) {
	runner := &fakeRunner{}

	_, err := Merge(context.Background(), runner, "does_not_exist", t.TempDir())
	require.Error(t, err)

	var verr *tasks.VerificationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, runner.commands)
}

func TestMergeCentralToBeta(t *testing.T) {
	repo := setupRepo(t)
	writeRepoFile(t, repo, "browser/config/version.txt", "89.0a1")
	writeRepoFile(t, repo, "config/milestone.txt", "89.0a1")
	writeRepoFile(t, repo, "browser/config/version_display.txt", "89.0a1")
	writeRepoFile(t, repo, "build/mozconfig.common", "MOZ_REQUIRE_SIGNING=${MOZ_REQUIRE_SIGNING-0}\n")

	runner := &fakeRunner{revisions: map[string]string{"central": "aaa111", "beta": "bbb222"}}

	result, err := Merge(context.Background(), runner, "central_to_beta", repo)
	require.NoError(t, err)

	assert.Equal(t, []RepoRevision{
		{Repo: "https://hg.mozilla.org/mozilla-central", Revision: "aaa111"},
		{Repo: "https://hg.mozilla.org/releases/mozilla-beta", Revision: "bbb222"},
	}, result)

	var tagged []string
	for _, command := range runner.commands {
		if command[0] == "tag" {
			tagged = append(tagged, command[len(command)-1])
		}
	}
	assert.Equal(t, []string{"FIREFOX_BETA_89_BASE", "FIREFOX_BETA_88_END"}, tagged)
}

func TestMergeReleaseToEsrReturnsNoRevisions(t *testing.T) {
	repo := setupRepo(t)
	writeRepoFile(t, repo, "browser/config/version.txt", "78.1.0")
	writeRepoFile(t, repo, "browser/config/version_display.txt", "78.1.0")
	writeRepoFile(t, repo, "build/mozconfig.common", "ACCEPTED_MAR_CHANNEL_IDS=firefox-mozilla-release\n")

	runner := &fakeRunner{}

	result, err := Merge(context.Background(), runner, "release_to_esr", repo)
	require.NoError(t, err)
	assert.Nil(t, result)
}
