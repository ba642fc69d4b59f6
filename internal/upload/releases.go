package upload

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/willdurand/scriptworker-scripts/internal/mover"
	"github.com/willdurand/scriptworker-scripts/internal/storage"
)

// PushToReleases promotes a candidates build to the public release area of
// one bucket. Candidate keys matching the exclusion list are dropped,
// partner repack keys are remapped through the partner release prefix for
// the listed partners only, destinations that already hold identical
// content are skipped, and a destination holding different content aborts
// the push.
func PushToReleases(ctx context.Context, store storage.ObjectStore, bucket, product, version string, buildNumber int, partners []string) (map[string]string, error) {
	candidatesPrefix, err := mover.CandidatesPrefix(product, version, buildNumber)
	if err != nil {
		return nil, err
	}
	releasesPrefix, err := mover.ReleasesPrefix(product, version)
	if err != nil {
		return nil, err
	}

	candidates, err := store.ListObjects(ctx, bucket, candidatesPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates found under %s", candidatesPrefix)
	}

	toCopy := make(map[string]string)
	etags := make(map[string]string)
	for _, obj := range candidates {
		if mover.MatchesExclude(obj.Key) {
			if partner := mover.PartnerMatch(obj.Key, candidatesPrefix, partners); partner != "" {
				partnerCandidates := mover.PartnerCandidatesPrefix(candidatesPrefix, partner)
				partnerReleases, err := mover.PartnerReleasesPrefix(product, version, partner)
				if err != nil {
					return nil, err
				}
				dest := partnerReleases + strings.TrimPrefix(obj.Key, partnerCandidates)
				toCopy[obj.Key] = dest
				etags[dest] = obj.ETag
			}
			continue
		}
		dest := releasesPrefix + strings.TrimPrefix(obj.Key, candidatesPrefix)
		toCopy[obj.Key] = dest
		etags[dest] = obj.ETag
	}

	existing, err := store.ListObjects(ctx, bucket, releasesPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	for _, obj := range existing {
		want, ok := etags[obj.Key]
		if !ok {
			continue
		}
		if obj.ETag != want {
			return nil, fmt.Errorf("%s already exists with different content", obj.Key)
		}
		slog.Info("Destination already holds identical content, skipping", "key", obj.Key)
		for source, dest := range toCopy {
			if dest == obj.Key {
				delete(toCopy, source)
			}
		}
	}

	for source, dest := range toCopy {
		if err := store.CopyObject(ctx, bucket, source, dest); err != nil {
			return nil, fmt.Errorf("failed to promote %s: %w", source, err)
		}
	}
	return toCopy, nil
}
