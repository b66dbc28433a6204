package framework

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 3000
	DefaultNavigationTimeout = time.Second * 30
	DefaultFailureGlobal     = "test-failures"
	DefaultIndexPath         = "/_suites"

	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// RunConfiguration holds everything a single harness run needs. It is built once from the
// command line (and optionally a config file) and not modified afterward.
type RunConfiguration struct {
	RootDirectory            string        `yaml:"root"`
	TargetPage               string        `yaml:"page"`
	Host                     string        `yaml:"host"`
	Port                     int           `yaml:"port"`
	NavigationTimeout        time.Duration `yaml:"timeout"`
	VerboseConsoleForwarding bool          `yaml:"verbose"`
	FailureGlobal            string        `yaml:"failureGlobal"`
	Engine                   string        `yaml:"engine"`
	BrowserPath              string        `yaml:"browser"`

	// Suite index page settings. The page is only served when DepsFile is set.
	IndexPath    string `yaml:"indexPath"`
	DepsFile     string `yaml:"deps"`
	SuitePattern string `yaml:"suitePattern"`
	RunnerPage   string `yaml:"runner"`
}

// UsageError reports a problem with how the harness was invoked.
type UsageError struct {
	Message string
}

func (e UsageError) Error() string {
	return e.Message
}

func usageErrorf(format string, args ...interface{}) error {
	return UsageError{Message: fmt.Sprintf(format, args...)}
}

// DefaultRunConfiguration returns a RunConfiguration with default values and no root
// directory or target page.
func DefaultRunConfiguration() RunConfiguration {
	return RunConfiguration{
		Host:              DefaultHost,
		Port:              DefaultPort,
		NavigationTimeout: DefaultNavigationTimeout,
		FailureGlobal:     DefaultFailureGlobal,
		Engine:            EngineChromedp,
		IndexPath:         DefaultIndexPath,
	}
}

// LoadConfigFile reads a YAML config file over the values already in base.
func LoadConfigFile(path string, base RunConfiguration) (RunConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return base, fmt.Errorf("parsing config file: %w", err)
	}
	return base, nil
}

// ValidateRoot checks only the served directory.
func (c RunConfiguration) ValidateRoot() error {
	if c.RootDirectory == "" {
		return usageErrorf("root directory is required")
	}
	info, err := os.Stat(c.RootDirectory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return usageErrorf("root directory %s does not exist", c.RootDirectory)
		}
		return usageErrorf("cannot access root directory %s: %s", c.RootDirectory, err)
	}
	if !info.IsDir() {
		return usageErrorf("root directory %s is not a directory", c.RootDirectory)
	}
	return nil
}

// Validate checks that the configuration describes a run that can be attempted. All errors
// it returns are UsageErrors.
func (c RunConfiguration) Validate() error {
	if err := c.ValidateRoot(); err != nil {
		return err
	}
	if c.TargetPage == "" {
		return usageErrorf("target page is required")
	}
	if c.Host == "" {
		return usageErrorf("host must not be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return usageErrorf("invalid port %d", c.Port)
	}
	if c.NavigationTimeout <= 0 {
		return usageErrorf("navigation timeout must be positive")
	}
	if c.FailureGlobal == "" {
		return usageErrorf("failure indicator global name must not be empty")
	}
	switch c.Engine {
	case EngineChromedp, EngineRod:
	default:
		return usageErrorf("unknown browser engine %q (expected %q or %q)", c.Engine, EngineChromedp, EngineRod)
	}
	if _, err := c.CompileSuitePattern(); err != nil {
		return err
	}
	return nil
}

// CompileSuitePattern returns the suite discovery pattern, or nil if none was configured.
func (c RunConfiguration) CompileSuitePattern() (*regexp.Regexp, error) {
	if c.SuitePattern == "" {
		return nil, nil
	}
	rx, err := regexp.Compile(c.SuitePattern)
	if err != nil {
		return nil, usageErrorf("invalid suite pattern: %s", err)
	}
	if rx.NumSubexp() < 1 {
		return nil, usageErrorf("suite pattern %q must contain a capture group for the suite path", c.SuitePattern)
	}
	return rx, nil
}
