package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// validFormats lists the output encodings accepted by --format.
var validFormats = map[string]bool{
	"text": true,
	"json": true,
	"yaml": true,
	"toml": true,
}

// WatchConfig holds configuration specific to ls --watch.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// ListConfig holds configuration for directory listings.
type ListConfig struct {
	Detailed     bool   `mapstructure:"long"`
	TemplateFile string `mapstructure:"template"`
}

// Options holds all the configuration settings for fexplore.
// Tags are used by Viper for unmarshalling from config files, env vars, and flags.
type Options struct {
	// Session
	Dir            string `mapstructure:"dir"` // Starting directory; empty means the process cwd
	FollowSymlinks bool   `mapstructure:"followSymlinks"`
	Chdir          bool   `mapstructure:"chdir"` // Keep the process cwd in sync with the session
	StageMoves     bool   `mapstructure:"stageMoves"`

	// Behavior Control
	AssumeYes bool `mapstructure:"yes"`
	Verbose   bool `mapstructure:"verbose"`

	// Output
	Format     string `mapstructure:"format"` // text, json, yaml or toml
	TimeFormat string `mapstructure:"timeFormat"`

	List  ListConfig  `mapstructure:"list"`
	Watch WatchConfig `mapstructure:"watch"`

	// Internal - Not typically set by user directly
	ConfigFile string `mapstructure:"config"`
}

// SetDefaults registers the default value of every option on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dir", "")
	v.SetDefault("followSymlinks", false)
	v.SetDefault("chdir", false)
	v.SetDefault("stageMoves", true)
	v.SetDefault("yes", false)
	v.SetDefault("verbose", false)
	v.SetDefault("format", "text")
	v.SetDefault("timeFormat", "2006-01-02 15:04:05")
	v.SetDefault("list.long", false)
	v.SetDefault("list.template", "")
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.debounce", "300ms")
}

// ValidateConfig checks the loaded configuration options for validity.
// All problems are reported together.
func (opts *Options) ValidateConfig() error {
	var errs []string

	if strings.TrimSpace(opts.Dir) != "" {
		info, err := os.Stat(opts.Dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Sprintf("dir '%s' does not exist", opts.Dir))
			} else {
				errs = append(errs, fmt.Sprintf("cannot access dir '%s': %v", opts.Dir, err))
			}
		} else if !info.IsDir() {
			errs = append(errs, fmt.Sprintf("dir '%s' is not a directory", opts.Dir))
		}
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format != "" && !validFormats[format] {
		errs = append(errs, fmt.Sprintf("format '%s' is invalid (valid formats: text, json, yaml, toml)", opts.Format))
	}

	if opts.List.TemplateFile != "" {
		info, err := os.Stat(opts.List.TemplateFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Sprintf("template file '%s' does not exist", opts.List.TemplateFile))
			} else {
				errs = append(errs, fmt.Sprintf("cannot access template file '%s': %v", opts.List.TemplateFile, err))
			}
		} else if info.IsDir() {
			errs = append(errs, fmt.Sprintf("template file '%s' is a directory, not a file", opts.List.TemplateFile))
		}
	}

	// Zero falls back to the watcher's default.
	if opts.Watch.Debounce < 0 {
		errs = append(errs, "watch.debounce duration must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
