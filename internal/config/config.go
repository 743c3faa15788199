package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"dockhand/internal/exitcode"
	"dockhand/internal/logger"
)

var clog = logger.PackageLogger("config")

// GitHubPrefix is the only repository hosting prefix accepted for cloning.
const GitHubPrefix = "https://github.com/"

const keyringService = "dockhand"

// Config carries everything a run needs. It is built once from the answers
// file, the environment, and interactive prompts, then threaded explicitly
// through every stage.
type Config struct {
	RepoURL string `yaml:"repo_url"`
	Token   string `yaml:"-"` // PAT is never persisted to the answers file
	Host    string `yaml:"host"`
	User    string `yaml:"user"`
	KeyPath string `yaml:"key_path"`
	AppPort int    `yaml:"app_port"`

	// Workdir is where repositories are cloned locally.
	Workdir string `yaml:"workdir,omitempty"`
}

// RepoName derives the local checkout directory name from the repository URL.
func (c *Config) RepoName() string {
	name := strings.TrimSuffix(strings.TrimRight(c.RepoURL, "/"), ".git")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// RepoPath is the local clone destination.
func (c *Config) RepoPath() string {
	workdir := c.Workdir
	if workdir == "" {
		workdir = "."
	}
	return filepath.Join(workdir, c.RepoName())
}

// Load reads an answers file. A missing path is not an error; prompting
// covers whatever stays empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	clog.Info("Loaded answers from %s", path)
	return cfg, nil
}

// ApplyEnvDefaults fills empty fields from a .env file (when present) and the
// process environment.
func (c *Config) ApplyEnvDefaults() {
	if err := godotenv.Load(); err == nil {
		clog.Debug("Loaded .env defaults")
	}
	set := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	set(&c.RepoURL, "DOCKHAND_REPO_URL")
	set(&c.Token, "DOCKHAND_TOKEN")
	set(&c.Host, "DOCKHAND_HOST")
	set(&c.User, "DOCKHAND_USER")
	set(&c.KeyPath, "DOCKHAND_KEY_PATH")
}

// ExpandKeyPath resolves a leading ~ in the SSH key path.
func (c *Config) ExpandKeyPath() {
	if strings.HasPrefix(c.KeyPath, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			c.KeyPath = filepath.Join(home, c.KeyPath[2:])
		}
	}
}

// Validate enforces the two hard input constraints before any network action:
// the SSH key file must exist and the repository must live on the expected
// host. Both failures carry their designated exit codes.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.RepoURL, GitHubPrefix) {
		return exitcode.Wrap(exitcode.BadRepoURL,
			fmt.Errorf("repository URL %q must start with %s", c.RepoURL, GitHubPrefix))
	}
	if _, err := os.Stat(c.KeyPath); err != nil {
		return exitcode.Wrap(exitcode.MissingSSHKey,
			fmt.Errorf("SSH key %s: %w", c.KeyPath, err))
	}
	if c.AppPort < 1 || c.AppPort > 65535 {
		return exitcode.Wrap(exitcode.BadRepoURL,
			fmt.Errorf("application port %d out of range", c.AppPort))
	}
	return nil
}

// ValidateTarget checks only the SSH reachability inputs, used by cleanup mode.
func (c *Config) ValidateTarget() error {
	if _, err := os.Stat(c.KeyPath); err != nil {
		return exitcode.Wrap(exitcode.MissingSSHKey,
			fmt.Errorf("SSH key %s: %w", c.KeyPath, err))
	}
	return nil
}

// RememberToken stores the PAT in the OS keyring, keyed by repository URL.
// Best effort: headless hosts often have no keyring daemon.
func (c *Config) RememberToken() {
	if c.Token == "" {
		return
	}
	if err := keyring.Set(keyringService, c.RepoURL, c.Token); err != nil {
		clog.Debug("keyring store skipped: %v", err)
		return
	}
	clog.Info("Token stored in system keyring")
}

// LookupToken retrieves a previously stored PAT for the repository, if any.
func (c *Config) LookupToken() bool {
	if c.Token != "" || c.RepoURL == "" {
		return false
	}
	tok, err := keyring.Get(keyringService, c.RepoURL)
	if err != nil {
		return false
	}
	c.Token = tok
	clog.Info("Token recovered from system keyring")
	return true
}
