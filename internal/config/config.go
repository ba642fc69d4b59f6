package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

// Config carries the environment-level settings of the beetmover daemon.
type Config struct {
	DatabaseURL      string `env:"DATABASE_URL" envDefault:"sqlite:///tmp/beetmover.db"`
	RabbitMQURL      string `env:"RABBITMQ_URL,notEmpty,required"`
	QueueName        string `env:"QUEUE_NAME" envDefault:"publish_queue"`
	APIPort          string `env:"API_PORT" envDefault:"8002"`
	WorkDir          string `env:"WORK_DIR" envDefault:"/app/workdir"`
	ArtifactDir      string `env:"ARTIFACT_DIR" envDefault:"/app/artifacts"`
	ScriptConfigPath string `env:"SCRIPT_CONFIG,notEmpty,required"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	return &cfg, nil
}

// CloudTarget is one bucket of one cloud, keyed in the script config by
// cloud name and release type (nightly, release, dep, ...).
type CloudTarget struct {
	Enabled         bool              `yaml:"enabled"`
	Bucket          string            `yaml:"bucket"`
	Credentials     CloudCredentials  `yaml:"credentials"`
	EndpointURL     string            `yaml:"endpoint_url"`
	Region          string            `yaml:"region"`
	URLPrefix       string            `yaml:"url_prefix"`
	FailTaskOnError bool              `yaml:"fail_task_on_error"`
	ProductBuckets  map[string]string `yaml:"product_buckets"`
}

type CloudCredentials struct {
	ID  string `yaml:"id"`
	Key string `yaml:"key"`
}

// BucketFor returns the bucket holding a product's artifacts, falling back
// to the target's default bucket.
func (t CloudTarget) BucketFor(product string) string {
	if bucket, ok := t.ProductBuckets[product]; ok {
		return bucket
	}
	return t.Bucket
}

// ScriptConfig is the YAML file describing clouds, scope prefixes, checksum
// digests and the upstream namespace of the instance.
type ScriptConfig struct {
	ScopePrefixes    []string                          `yaml:"taskcluster_scope_prefixes"`
	ChecksumsDigests []string                          `yaml:"checksums_digests"`
	Clouds           map[string]map[string]CloudTarget `yaml:"clouds"`
}

func LoadScriptConfig(path string) (*ScriptConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script config %s: %w", path, err)
	}

	var cfg ScriptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse script config %s: %w", path, err)
	}
	if len(cfg.ScopePrefixes) == 0 {
		return nil, fmt.Errorf("script config %s declares no scope prefixes", path)
	}
	return &cfg, nil
}

// EnabledResources lists the release types enabled in at least one cloud.
// Scope resolution checks resource scopes against this set.
func (c *ScriptConfig) EnabledResources() map[string]bool {
	resources := make(map[string]bool)
	for _, targets := range c.Clouds {
		for resource, target := range targets {
			if target.Enabled {
				resources[resource] = true
			}
		}
	}
	return resources
}

// NamedTarget is a CloudTarget together with its position in the clouds map.
type NamedTarget struct {
	Cloud    string
	Resource string
	CloudTarget
}

// TargetsFor returns the enabled cloud targets serving a release type,
// ordered by cloud name for stable iteration.
func (c *ScriptConfig) TargetsFor(resource string) []NamedTarget {
	var targets []NamedTarget
	for cloud, byResource := range c.Clouds {
		target, ok := byResource[resource]
		if !ok || !target.Enabled {
			continue
		}
		targets = append(targets, NamedTarget{Cloud: cloud, Resource: resource, CloudTarget: target})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Cloud < targets[j].Cloud })
	return targets
}

// Digests returns the configured checksum algorithms, or the given default
// when the config leaves them out.
func (c *ScriptConfig) Digests(fallback []string) []string {
	if len(c.ChecksumsDigests) > 0 {
		return c.ChecksumsDigests
	}
	return fallback
}
