// Package checksums computes artifact digests and serializes them into the
// checksums manifest shipped next to the release artifacts. The manifest is
// re-signed downstream, so its bytes must be identical across runs on
// identical inputs.
package checksums

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"
)

// hashBlockSize bounds memory use while hashing regardless of file size.
const hashBlockSize = 1024 * 1024

// DefaultDigests are the algorithms computed when the config lists none.
var DefaultDigests = []string{"sha512", "sha256"}

// Entry holds the digests and size recorded for one artifact.
type Entry struct {
	Digests map[string]string
	Size    int64
}

// Manifest maps artifact names to their checksum entries.
type Manifest map[string]Entry

func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm %q", algorithm)
	}
}

// HashFile returns the hex digest of the file for one algorithm, reading in
// fixed size blocks.
func HashFile(path, algorithm string) (string, error) {
	digest, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	buf := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(digest, file, buf); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}

	return fmt.Sprintf("%x", digest.Sum(nil)), nil
}

// FileEntry computes all requested digests plus the byte size of a file.
func FileEntry(path string, algorithms []string) (Entry, error) {
	entry := Entry{Digests: make(map[string]string, len(algorithms))}

	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("sizing %s: %w", path, err)
	}
	entry.Size = info.Size()

	for _, algorithm := range algorithms {
		digest, err := HashFile(path, algorithm)
		if err != nil {
			return Entry{}, err
		}
		entry.Digests[algorithm] = digest
	}
	return entry, nil
}

// Render serializes the manifest, one line per (artifact, algorithm) pair in
// the order the algorithms are configured, artifacts sorted by name.
func (m Manifest) Render(algorithms []string) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var lines []string
	for _, name := range names {
		entry := m[name]
		for _, algorithm := range algorithms {
			lines = append(lines, fmt.Sprintf("%s %s %d %s", entry.Digests[algorithm], algorithm, entry.Size, name))
		}
	}
	return strings.Join(lines, "\n")
}

// fileSuffixes maps a task kind to a custom checksums file suffix.
var fileSuffixes = map[string]string{
	"beetmover-source":                   "-source",
	"release-beetmover-signed-langpacks": "-langpack",
}

// Filename returns the relative path of the checksums manifest for a task
// kind, e.g. "public/target-source.checksums" for source tasks.
func Filename(taskKind string) string {
	return fmt.Sprintf("public/target%s.checksums", fileSuffixes[taskKind])
}
