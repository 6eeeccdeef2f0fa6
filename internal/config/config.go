package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. Remote host/path and
// generator choice are fixed per deployment; the CLI only selects which
// config file to load.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Generator GeneratorConfig `yaml:"generator"`
	Remote    RemoteConfig    `yaml:"remote"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	Daemon    DaemonConfig    `yaml:"daemon,omitempty"`
	Image     ImageConfig     `yaml:"image,omitempty"`
}

// SiteConfig locates the authored source tree and the generated output tree.
type SiteConfig struct {
	Root      string `yaml:"root"`             // source tree root (generator working directory)
	OutputDir string `yaml:"output,omitempty"` // generated site, relative to Root unless absolute
}

// GeneratorConfig selects the external static-site generator executable.
type GeneratorConfig struct {
	Candidates []string `yaml:"candidates,omitempty"` // ordered executable names tried via PATH lookup
}

// RemoteConfig is the fixed publish destination (user@host:path).
type RemoteConfig struct {
	Host string `yaml:"host"`
	User string `yaml:"user,omitempty"`
	Path string `yaml:"path"`
}

// Destination renders the rsync-style remote destination string.
func (r RemoteConfig) Destination() string {
	if r.User != "" {
		return fmt.Sprintf("%s@%s:%s", r.User, r.Host, r.Path)
	}
	return fmt.Sprintf("%s:%s", r.Host, r.Path)
}

// RetryConfig controls retry behavior for transient publish failures.
// MaxRetries defaults to 0: the pipeline fails fast with no retry.
type RetryConfig struct {
	Backoff    string        `yaml:"backoff,omitempty"` // fixed|linear|exponential
	Initial    time.Duration `yaml:"initial,omitempty"`
	Max        time.Duration `yaml:"max,omitempty"`
	MaxRetries int           `yaml:"max_retries,omitempty"`
}

// DaemonConfig configures continuous deploy mode.
type DaemonConfig struct {
	Watch       bool          `yaml:"watch,omitempty"`        // rebuild on source tree changes
	Debounce    time.Duration `yaml:"debounce,omitempty"`     // quiet period after a filesystem event
	Interval    time.Duration `yaml:"interval,omitempty"`     // periodic deploy schedule (0 disables)
	Listen      string        `yaml:"listen,omitempty"`       // metrics/health HTTP listen address
	HistoryPath string        `yaml:"history_path,omitempty"` // sqlite run history database
	Events      *EventsConfig `yaml:"events,omitempty"`       // optional NATS deploy event publishing
}

// EventsConfig enables publishing deploy run events to NATS.
type EventsConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject,omitempty"`
}

// ImageConfig configures the containerized publish path.
type ImageConfig struct {
	GeneratorRepo string `yaml:"generator_repo,omitempty"` // generator source repository URL
	GeneratorRef  string `yaml:"generator_ref,omitempty"`  // pinned tag or branch
	BuilderImage  string `yaml:"builder_image,omitempty"`  // stage 1/2 base (Go toolchain)
	ServerImage   string `yaml:"server_image,omitempty"`   // stage 3 base (web server)
	ServingDir    string `yaml:"serving_dir,omitempty"`    // serving root inside ServerImage
	Tag           string `yaml:"tag,omitempty"`            // output image tag
	ContextDir    string `yaml:"context_dir,omitempty"`    // assembly workspace (default: temp dir)
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists; absence is not an error.
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills zero-valued fields after unmarshal.
func (c *Config) applyDefaults() {
	if c.Site.Root == "" {
		c.Site.Root = "."
	}
	if c.Site.OutputDir == "" {
		c.Site.OutputDir = "public"
	}
	if len(c.Generator.Candidates) == 0 {
		c.Generator.Candidates = DefaultGeneratorCandidates()
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = string(RetryBackoffLinear)
	}
	if c.Retry.Initial == 0 {
		c.Retry.Initial = time.Second
	}
	if c.Retry.Max == 0 {
		c.Retry.Max = 30 * time.Second
	}
	// Retry.MaxRetries stays 0 unless configured: fail fast, no retry.
	if c.Daemon.Debounce == 0 {
		c.Daemon.Debounce = 2 * time.Second
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":9180"
	}
	if c.Daemon.HistoryPath == "" {
		c.Daemon.HistoryPath = "sitedeploy-history.db"
	}
	if c.Daemon.Events != nil && c.Daemon.Events.Subject == "" {
		c.Daemon.Events.Subject = "sitedeploy.runs"
	}
	c.Image.applyDefaults()
}

func (i *ImageConfig) applyDefaults() {
	if i.GeneratorRepo == "" {
		i.GeneratorRepo = "https://github.com/gohugoio/hugo.git"
	}
	if i.GeneratorRef == "" {
		i.GeneratorRef = "v0.148.2"
	}
	if i.BuilderImage == "" {
		i.BuilderImage = "golang:1.24-alpine"
	}
	if i.ServerImage == "" {
		i.ServerImage = "nginx:alpine"
	}
	if i.ServingDir == "" {
		i.ServingDir = "/usr/share/nginx/html"
	}
	if i.Tag == "" {
		i.Tag = "sitedeploy/site:latest"
	}
}

// DefaultGeneratorCandidates returns the ordered executable names tried by
// the resolver: the conventional name first, then the platform-specific
// variant.
func DefaultGeneratorCandidates() []string {
	if runtime.GOOS == "windows" {
		return []string{"hugo", "hugo.exe"}
	}
	return []string{"hugo", "hugo_extended"}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Site: SiteConfig{
			Root:      ".",
			OutputDir: "public",
		},
		Remote: RemoteConfig{
			Host: "example.com",
			User: "deploy",
			Path: "/var/www/site",
		},
		Daemon: DaemonConfig{
			Watch:    true,
			Debounce: 2 * time.Second,
		},
		Image: ImageConfig{
			Tag: "sitedeploy/site:latest",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
