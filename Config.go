package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"

	"github.com/go-while/ydecode/yenc"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

const (
	DOT = "."
	LF  = "\n"

	DefaultConfigFile = "ydecode.yaml"
	DefaultEncoding   = "iso-8859-1"
	DefaultOutputDir  = "."
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
	ConfigEnv         = "YDECODE_CONFIG"
	DefaultBufferSize = 256 * 1024
)

// errConfig marks configuration and usage problems (exit code 2).
var errConfig = errors.New("config")

type (
	Config struct {
		Encoding  string    `yaml:"encoding"`
		OutputDir string    `yaml:"output_dir"`
		CacheDir  string    `yaml:"cache_dir"`
		Workers   int       `yaml:"workers"`
		Mem       int       `yaml:"mem"`
		MaxSize   int64     `yaml:"max_size"` // bytes per decoded file, 0 = library default
		Overwrite bool      `yaml:"overwrite"`
		Report    string    `yaml:"report"`
		Progress  bool      `yaml:"progress"`
		Colors    bool      `yaml:"colors"`
		Log       LogConfig `yaml:"log"`
		S3        S3Config  `yaml:"s3"`

		enc encoding.Encoding // resolved from Encoding by Validate
	} // end Config struct

	LogConfig struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}

	// S3Config selects the S3 sink when Bucket is set.
	S3Config struct {
		Bucket    string `yaml:"bucket"`
		Prefix    string `yaml:"prefix"`
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"`
		PathStyle bool   `yaml:"path_style"`
	}
) // end type

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} with environment values.
// Unset variables without a default expand to the empty string.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if value, ok := os.LookupEnv(groups[1]); ok && value != "" {
			return value
		}
		if len(groups) >= 3 {
			return groups[2]
		}
		return ""
	})
} // end func ExpandEnv

func DefaultConfig() *Config {
	return &Config{
		Encoding:  DefaultEncoding,
		OutputDir: DefaultOutputDir,
		Log:       LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// resolveConfigPath picks the config file: the flag value, then the
// environment, then ./ydecode.yaml if it exists. Empty means defaults only.
func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if path := os.Getenv(ConfigEnv); path != "" {
		return path
	}
	if FileExists(DefaultConfigFile) {
		return DefaultConfigFile
	}
	return ""
} // end func resolveConfigPath

// loadConfigFile reads a YAML config over the defaults. An empty path returns
// the defaults.
func loadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: file not found: %s", errConfig, path)
		}
		return nil, fmt.Errorf("%w: cannot read %q: %w", errConfig, path, err)
	}
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML in %s: %w", errConfig, path, err)
	}
	return cfg, nil
} // end func loadConfigFile

// Validate fills derived defaults and rejects unusable settings.
func (cfg *Config) Validate() error {
	enc, err := lookupEncoding(cfg.Encoding)
	if err != nil {
		return err
	}
	cfg.enc = enc
	if cfg.Workers < 0 || cfg.Mem < 0 || cfg.MaxSize < 0 {
		return fmt.Errorf("%w: workers, mem and max_size must not be negative", errConfig)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Mem == 0 {
		cfg.Mem = cfg.Workers * 2
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = yenc.DefaultMaxSize
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: log level: %w", errConfig, err)
	}
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = DefaultLogFormat
	case "json", "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", errConfig, cfg.Log.Format)
	}
	if cfg.S3.Bucket == "" && cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	return nil
} // end func Validate

// TextEncoding returns the encoding resolved by Validate.
func (cfg *Config) TextEncoding() encoding.Encoding {
	if cfg.enc == nil {
		return charmap.ISO8859_1
	}
	return cfg.enc
}

// lookupEncoding resolves names like "iso-8859-1", "Windows 1252" or
// "koi8_r" to a single-byte charmap.
func lookupEncoding(name string) (encoding.Encoding, error) {
	want := normalizeEncodingName(name)
	switch want {
	case "", "latin1":
		return charmap.ISO8859_1, nil
	}
	for _, enc := range charmap.All {
		cm, ok := enc.(*charmap.Charmap)
		if !ok {
			continue
		}
		if normalizeEncodingName(cm.String()) == want {
			return cm, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown encoding %q", errConfig, name)
} // end func lookupEncoding

func normalizeEncodingName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(name))
}
