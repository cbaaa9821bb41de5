// Package config parses usain.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load.
const FileName = "usain.toml"

// TokenEnv holds the Jenkins API token. It is never read from the file.
const TokenEnv = "USAIN_JENKINS_TOKEN"

// DefaultAccentColor is the default TUI accent color (indigo).
const DefaultAccentColor = "#7D56F4"

// ErrNotFound is returned by Load when no usain.toml exists above the
// working directory.
var ErrNotFound = errors.New("config: " + FileName + " not found")

// hexColorRe matches a 6-digit hex color string like "#7D56F4".
var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Config is the top-level usain.toml configuration.
type Config struct {
	Project       ProjectConfig       `toml:"project"`
	Gateway       GatewayConfig       `toml:"gateway"`
	Jenkins       JenkinsConfig       `toml:"jenkins"`
	TUI           TUIConfig           `toml:"tui"`
	Notifications NotificationsConfig `toml:"notifications"`
	Provision     ProvisionConfig     `toml:"provision"`
}

// ProjectConfig identifies the project.
type ProjectConfig struct {
	Name string `toml:"name"`
}

// GatewayConfig locates the Jenkins SSE gateway.
type GatewayConfig struct {
	URL                   string `toml:"url"`
	ClientID              string `toml:"client_id"` // empty = random per session
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// RequestTimeout returns the timeout for non-streaming gateway and REST calls.
func (g GatewayConfig) RequestTimeout() time.Duration {
	return time.Duration(g.RequestTimeoutSeconds) * time.Second
}

// JenkinsConfig controls Blue Ocean REST lookups.
type JenkinsConfig struct {
	Organization string `toml:"organization"`
	Username     string `toml:"username"`
}

// Token returns the API token from the environment.
func (JenkinsConfig) Token() string {
	return os.Getenv(TokenEnv)
}

// TUIConfig controls the terminal UI.
type TUIConfig struct {
	AccentColor string `toml:"accent_color"`
	LogLevel    string `toml:"log_level"`
}

// NotificationsConfig controls webhook/ntfy.sh notifications.
type NotificationsConfig struct {
	URL      string `toml:"url"`
	OnFinish bool   `toml:"on_finish"`
}

// ProvisionConfig describes the one-shot install step run by `usain provision`.
type ProvisionConfig struct {
	PackageJSON string   `toml:"package_json"`
	Script      string   `toml:"script"`
	Hook        string   `toml:"hook"`
	Scripts     []string `toml:"scripts"`
	Runner      string   `toml:"runner"`
}

// ParseLogLevel maps a config or flag value onto an slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
}

// Validate checks the configuration for issues that would cause confusing
// runtime failures. It returns all found issues joined together.
func (c *Config) Validate() error {
	var errs []error

	if !isHTTPURL(c.Gateway.URL) {
		errs = append(errs, fmt.Errorf("gateway.url must be a valid http or https URL"))
	}
	if c.Gateway.RequestTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("gateway.request_timeout_seconds must be >= 0 (0 = default)"))
	}
	if strings.ContainsAny(c.Gateway.ClientID, "/?# ") {
		errs = append(errs, fmt.Errorf("gateway.client_id must not contain '/', '?', '#' or spaces"))
	}

	if c.Jenkins.Organization == "" {
		errs = append(errs, fmt.Errorf("jenkins.organization must not be empty"))
	}

	if c.TUI.AccentColor != "" && !hexColorRe.MatchString(c.TUI.AccentColor) {
		errs = append(errs, fmt.Errorf("tui.accent_color must be a hex color (e.g. \"#7D56F4\")"))
	}
	if _, err := ParseLogLevel(c.TUI.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("tui.log_level must be one of debug, info, warn, error"))
	}

	if c.Notifications.URL != "" && !isHTTPURL(c.Notifications.URL) {
		errs = append(errs, fmt.Errorf("notifications.url must be a valid http or https URL"))
	}

	p := c.Provision
	if p.PackageJSON == "" {
		errs = append(errs, fmt.Errorf("provision.package_json must not be empty"))
	}
	if p.Script == "" {
		errs = append(errs, fmt.Errorf("provision.script must not be empty"))
	}
	if p.Hook == "" {
		errs = append(errs, fmt.Errorf("provision.hook must not be empty"))
	}
	if p.Runner == "" {
		errs = append(errs, fmt.Errorf("provision.runner must not be empty"))
	}
	for i, s := range p.Scripts {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, fmt.Errorf("provision.scripts[%d] must not be empty", i))
		}
	}

	return errors.Join(errs...)
}

func isHTTPURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Defaults returns a Config with the documented defaults.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			URL:                   "http://localhost:8080/jenkins",
			RequestTimeoutSeconds: 10,
		},
		Jenkins: JenkinsConfig{
			Organization: "jenkins",
		},
		TUI: TUIConfig{
			AccentColor: DefaultAccentColor,
			LogLevel:    "info",
		},
		Notifications: NotificationsConfig{
			OnFinish: true,
		},
		Provision: ProvisionConfig{
			PackageJSON: "package.json",
			Script:      "postinstall.js",
			Hook:        "postinstall",
			Scripts:     []string{"do_prod_installs", "do_dev_installs"},
			Runner:      "npm",
		},
	}
}

// Load reads usain.toml from the given path. If path is empty, it walks up
// from the current working directory looking for usain.toml and returns
// ErrNotFound when there is none. Unknown keys (likely typos) are an error.
func Load(path string) (*Config, error) {
	if path == "" {
		found, err := findConfig()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s (possible typos?)", path, strings.Join(keys, ", "))
	}

	if cfg.Project.Name == "" {
		cfg.Project.Name = DetectProjectName(filepath.Dir(path))
	}

	return &cfg, nil
}

// LoadOrDefaults behaves like Load but falls back to Defaults when no file
// is found. The project name is then detected from dir.
func LoadOrDefaults(path, dir string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		d := Defaults()
		d.Project.Name = DetectProjectName(dir)
		return &d, nil
	}
	return cfg, err
}

// findConfig walks up from the current directory looking for usain.toml.
func findConfig() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: get working directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (searched up from %s)", ErrNotFound, dir)
		}
		dir = parent
	}
}

const template = `# usain.toml: usain project configuration
# Place this file in the root of your project.

[project]
name = ""   # falls back to package.json "name", then the directory name

[gateway]
url = "http://localhost:8080/jenkins"
client_id = ""                 # empty = random UUID per session
request_timeout_seconds = 10

[jenkins]
organization = "jenkins"
username = ""                  # API token is read from $USAIN_JENKINS_TOKEN

[tui]
accent_color = "#7D56F4"       # hex color for header/accent elements
log_level = "info"             # debug | info | warn | error

[notifications]
url = ""                       # ntfy.sh topic URL or any HTTP webhook (empty = disabled)
on_finish = true               # notify when a watched run finishes

[provision]
package_json = "package.json"
script = "postinstall.js"
hook = "postinstall"
scripts = ["do_prod_installs", "do_dev_installs"]
runner = "npm"
`

// InitFile writes a default usain.toml template to the given directory.
func InitFile(dir string) (string, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config: %s already exists at %s", FileName, path)
	}

	if err := os.WriteFile(path, []byte(template), 0644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}
