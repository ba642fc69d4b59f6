package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/willdurand/scriptworker-scripts/internal/checksums"
	"github.com/willdurand/scriptworker-scripts/internal/config"
	"github.com/willdurand/scriptworker-scripts/internal/mover"
	"github.com/willdurand/scriptworker-scripts/internal/platform"
	"github.com/willdurand/scriptworker-scripts/internal/storage"
	"github.com/willdurand/scriptworker-scripts/internal/tasks"
)

// StoreFactory opens the object store of one configured cloud target.
type StoreFactory func(target config.NamedTarget) (storage.ObjectStore, error)

// S3StoreFactory connects to targets over the S3 protocol using the
// credentials from the script config.
func S3StoreFactory(target config.NamedTarget) (storage.ObjectStore, error) {
	return storage.NewS3ObjectStore(storage.S3ClientConfig{
		EndpointURL:     target.EndpointURL,
		AccessKeyID:     target.Credentials.ID,
		SecretAccessKey: target.Credentials.Key,
		Region:          target.Region,
	})
}

// installerArtifacts are the artifacts buildhub.json describes the download
// of, in lookup order.
var installerArtifacts = []string{
	"target.tar.bz2",
	"target.tar.xz",
	"target.installer.exe",
	"target.dmg",
	"target.pkg",
	"target.apk",
}

// Beetmover runs one publish task end to end: scope resolution, destination
// resolution, output artifact generation, and the fan-out upload.
type Beetmover struct {
	scriptConfig *config.ScriptConfig
	resolver     *mover.Resolver
	stores       StoreFactory
	workDir      string
	artifactDir  string
}

func NewBeetmover(scriptConfig *config.ScriptConfig, workDir, artifactDir string, stores StoreFactory) *Beetmover {
	return &Beetmover{
		scriptConfig: scriptConfig,
		resolver:     mover.NewResolver(),
		stores:       stores,
		workDir:      workDir,
		artifactDir:  artifactDir,
	}
}

// Result records what a publish run did, for the ledger.
type Result struct {
	Action   tasks.Action
	Resource string
	Product  string

	// Moved maps each uploaded local file to its destination keys. For
	// push-to-releases it maps source keys to destination keys instead.
	Moved map[string][]string
}

// ManifestJSON renders the moved mapping for the ledger's manifest column.
func (r *Result) ManifestJSON() ([]byte, error) {
	return json.Marshal(r.Moved)
}

func (b *Beetmover) Process(ctx context.Context, task *tasks.Task) (*Result, error) {
	prefixes := b.scriptConfig.ScopePrefixes

	action, err := tasks.ResolveAction(task.Scopes, prefixes)
	if err != nil {
		return nil, err
	}
	if err := task.ValidatePayload(action); err != nil {
		return nil, err
	}

	resource, err := tasks.ResolveResource(task.Scopes, prefixes, "bucket", b.scriptConfig.EnabledResources())
	if err != nil {
		return nil, err
	}

	targets := b.scriptConfig.TargetsFor(resource)
	if len(targets) == 0 {
		return nil, fmt.Errorf("no enabled cloud targets for resource %q", resource)
	}

	product, err := mover.ProductName(task, action, true)
	if err != nil {
		return nil, err
	}

	result := &Result{Action: action, Resource: resource, Product: product}

	if action.IsRelease() {
		return b.pushToReleases(ctx, task, targets, result)
	}
	return b.moveArtifacts(ctx, task, action, targets, result)
}

func (b *Beetmover) pushToReleases(ctx context.Context, task *tasks.Task, targets []config.NamedTarget, result *Result) (*Result, error) {
	result.Moved = make(map[string][]string)

	for _, target := range targets {
		store, err := b.stores(target)
		if err != nil {
			return nil, fmt.Errorf("cannot open store for cloud %s: %w", target.Cloud, err)
		}

		copied, err := PushToReleases(ctx, store, target.BucketFor(result.Product),
			result.Product, task.Payload.Version, task.Payload.BuildNumber, task.Payload.Partners)
		if err != nil {
			return nil, err
		}
		for source, dest := range copied {
			result.Moved[source] = append(result.Moved[source], dest)
		}
	}
	return result, nil
}

func (b *Beetmover) moveArtifacts(ctx context.Context, task *tasks.Task, action tasks.Action, targets []config.NamedTarget, result *Result) (*Result, error) {
	preserveFullPaths := action.IsMaven() || action.IsImportArtifacts()
	artifactSet, err := task.UpstreamArtifacts(b.workDir, preserveFullPaths)
	if err != nil {
		return nil, err
	}

	var manifest *mover.Manifest
	if len(task.Payload.ArtifactMap) > 0 {
		if err := task.Payload.CheckArtifactMapVersions(); err != nil {
			return nil, err
		}
	} else {
		args, err := mover.BuildTemplateArgs(task, action)
		if err != nil {
			return nil, err
		}
		manifest, err = b.resolver.Resolve(args)
		if err != nil {
			return nil, err
		}
	}

	algorithms := b.scriptConfig.Digests(checksums.DefaultDigests)
	sums := make(checksums.Manifest)
	var artifacts []Artifact
	result.Moved = make(map[string][]string)

	props, _ := task.ReleaseProps()
	urlPrefix := targets[0].URLPrefix
	var balrogEntries []mover.BalrogEntry

	for _, locale := range sortedLocales(artifactSet) {
		byName := artifactSet[locale]

		if buildhubPath, ok := byName[mover.BuildhubArtifact]; ok {
			err := b.refreshBuildhub(buildhubPath, byName, locale, urlPrefix, manifest, &task.Payload)
			if err != nil {
				return nil, err
			}
		}

		for name, localPath := range byName {
			destinations, entry, err := destinationsFor(task, manifest, locale, name, localPath)
			if err != nil {
				return nil, err
			}

			sum, err := checksums.FileEntry(localPath, algorithms)
			if err != nil {
				return nil, err
			}
			sums[name] = sum

			if entry != nil && entry.UpdateBalrogManifest && props != nil {
				balrogEntries = append(balrogEntries, balrogEntry(props, locale, name, urlPrefix, manifest, sum))
			}

			artifacts = append(artifacts, Artifact{LocalPath: localPath, Destinations: destinations})
			result.Moved[localPath] = destinations
		}
	}

	if _, err := mover.WriteChecksums(b.artifactDir, task.Kind(), sums, algorithms); err != nil {
		return nil, err
	}
	if len(balrogEntries) > 0 {
		if err := mover.WriteBalrogManifest(b.artifactDir, balrogEntries); err != nil {
			return nil, err
		}
	}

	uploadTargets := make([]Target, 0, len(targets))
	for _, target := range targets {
		store, err := b.stores(target)
		if err != nil {
			return nil, fmt.Errorf("cannot open store for cloud %s: %w", target.Cloud, err)
		}
		uploadTargets = append(uploadTargets, Target{
			Cloud:           target.Cloud,
			Bucket:          target.BucketFor(result.Product),
			Store:           store,
			FailTaskOnError: target.FailTaskOnError,
		})
	}

	if err := Publish(ctx, uploadTargets, artifacts); err != nil {
		return nil, err
	}

	slog.Info("Publish run completed", "action", action.String(), "resource", result.Resource, "artifacts", len(artifacts))
	return result, nil
}

// destinationsFor resolves where one artifact goes: through the payload's
// artifact map when present, through the rendered manifest otherwise.
func destinationsFor(task *tasks.Task, manifest *mover.Manifest, locale, name, localPath string) ([]string, *mover.ManifestEntry, error) {
	if len(task.Payload.ArtifactMap) > 0 {
		taskID, err := tasks.TaskIDFromPath(localPath)
		if err != nil {
			return nil, nil, err
		}
		cfg, err := task.Payload.FileConfig(taskID, locale, task.Payload.FullArtifactMapPath(name, locale))
		if err != nil {
			return nil, nil, err
		}
		return cfg.Destinations, nil, nil
	}

	entry, ok := manifest.Mapping[locale][name]
	if !ok || len(entry.Destinations) == 0 {
		return nil, nil, fmt.Errorf("no destination resolved for %s (%s)", name, locale)
	}

	destinations := make([]string, len(entry.Destinations))
	for i, dest := range entry.Destinations {
		destinations[i] = joinKey(manifest.S3BucketPath, dest)
	}
	return destinations, &entry, nil
}

func (b *Beetmover) refreshBuildhub(buildhubPath string, byName map[string]string, locale, urlPrefix string, manifest *mover.Manifest, payload *tasks.Payload) error {
	for _, installer := range installerArtifacts {
		installerPath, ok := byName[installer]
		if !ok {
			continue
		}

		contents, err := mover.UpdatedBuildhub(buildhubPath, installerPath, installer, locale, urlPrefix, manifest, payload)
		if err != nil {
			return err
		}
		encoded, err := json.Marshal(contents)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", buildhubPath, err)
		}
		return os.WriteFile(buildhubPath, encoded, 0o644)
	}
	return fmt.Errorf("buildhub.json present but no installer artifact found for locale %s", locale)
}

func balrogEntry(props *tasks.ReleaseProperties, locale, name, urlPrefix string, manifest *mover.Manifest, sum checksums.Entry) mover.BalrogEntry {
	entry := mover.BalrogEntry{
		AppName:    props.AppName,
		AppVersion: props.AppVersion,
		Branch:     props.Branch,
		BuildID:    props.BuildID,
		HashType:   "sha512",
		Locale:     locale,
		Platform:   platform.NormalizeBalrog(props.StagePlatform),
	}

	update := mover.BalrogUpdate{
		Hash: sum.Digests["sha512"],
		Size: sum.Size,
	}
	if m, ok := manifest.Mapping[locale][name]; ok && len(m.Destinations) > 0 {
		update.URL = joinKey(urlPrefix, joinKey(manifest.S3BucketPath, m.Destinations[0]))
	}
	entry.CompleteInfo = []mover.BalrogUpdate{update}

	return entry
}

func sortedLocales(set tasks.UpstreamArtifactSet) []string {
	locales := make([]string, 0, len(set))
	for locale := range set {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

func joinKey(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	for len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	for len(suffix) > 0 && suffix[0] == '/' {
		suffix = suffix[1:]
	}
	return prefix + "/" + suffix
}
