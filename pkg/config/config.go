package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hiway/sampleset/pkg/dataset"
	"github.com/hiway/sampleset/pkg/label"
	"github.com/hiway/sampleset/pkg/metadata"
	"github.com/hiway/sampleset/pkg/sample"
	"github.com/hiway/sampleset/pkg/writer"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SAMPLESET_"

// Log defines where and how the run is logged.
type Log struct {
	Level string `toml:"level"` // zerolog level name
	Dir   string `toml:"dir"`   // log file directory, empty disables the file
	File  string `toml:"file"`  // log file name inside Dir
	JSON  bool   `toml:"json"`  // force JSON console output
}

// Validate checks if the log configuration is valid.
func (l *Log) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(l.Level)); err != nil {
		return fmt.Errorf("invalid log level %q", l.Level)
	}
	if l.Dir != "" && l.File == "" {
		return fmt.Errorf("log file name cannot be empty when a log dir is set")
	}
	return nil
}

// Path returns the log file path, or "" when file logging is off.
func (l *Log) Path() string {
	if l.Dir == "" {
		return ""
	}
	return filepath.Join(l.Dir, l.File)
}

// Config holds the complete sampleset configuration.
type Config struct {
	Root                 string   `toml:"root"`
	OutputDir            string   `toml:"output_dir"`
	MetadataFile         string   `toml:"metadata_file"`
	AudioPattern         string   `toml:"audio_pattern"`
	AudioCaseInsensitive bool     `toml:"audio_case_insensitive"`
	Workers              int      `toml:"workers"`
	OnDecodeError        string   `toml:"on_decode_error"`
	Formats              []string `toml:"formats"`
	Instruments          []string `toml:"instruments"`
	Log                  Log      `toml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Root:          "./freesound",
		OutputDir:     "./data/interim",
		MetadataFile:  metadata.DefaultFileName,
		AudioPattern:  sample.DefaultAudioPattern,
		Workers:       1,
		OnDecodeError: string(dataset.DecodeAbort),
		Formats:       []string{writer.FormatPickle},
		Instruments:   label.Default().Names(),
		Log: Log{
			Level: "info",
			Dir:   "./project_logs",
			File:  "audio_preprocessing.log",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root cannot be empty")
	}
	if c.OutputDir == "" {
		return errors.New("output_dir cannot be empty")
	}
	if c.MetadataFile == "" || strings.ContainsRune(c.MetadataFile, '/') {
		return fmt.Errorf("metadata_file must be a plain file name, got %q", c.MetadataFile)
	}
	if err := sample.NewValidator(c.AudioPattern, c.AudioCaseInsensitive).Validate(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if !dataset.DecodePolicy(c.OnDecodeError).Valid() {
		return fmt.Errorf("on_decode_error must be %q or %q, got %q", dataset.DecodeAbort, dataset.DecodeSkip, c.OnDecodeError)
	}
	if len(c.Formats) == 0 {
		return errors.New("formats cannot be empty")
	}
	for _, f := range c.Formats {
		if _, err := writer.New(f, zerolog.Nop()); err != nil {
			return err
		}
	}
	if len(c.Instruments) == 0 {
		return errors.New("instruments cannot be empty")
	}
	for _, name := range c.Instruments {
		if strings.TrimSpace(name) == "" {
			return errors.New("instrument names cannot be blank")
		}
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("invalid log section: %w", err)
	}
	return nil
}

// Locate returns the config file paths in order of increasing priority:
// system-wide, user (XDG) and local directory.
func Locate(log zerolog.Logger) []string {
	files := []string{"/usr/local/etc/sampleset.toml"}

	userPath, err := xdg.ConfigFile("sampleset/sampleset.toml")
	if err == nil {
		files = append(files, userPath)
	} else {
		log.Warn().Err(err).Msg("Could not determine user config directory")
	}

	return append(files, "./sampleset.toml")
}

// LoadConfig decodes a TOML file on top of cfg.
func LoadConfig(cfg *Config, path string, log zerolog.Logger) error {
	log.Debug().Str("path", path).Msg("Loading configuration file")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	for _, key := range md.Undecoded() {
		log.Warn().Str("path", path).Str("key", key.String()).Msg("Unknown configuration key")
	}
	return nil
}

// Load builds the configuration from defaults, the located config files
// (later files override earlier ones), an optional explicit file, the .env
// file and the environment.
func Load(explicit string, log zerolog.Logger) (*Config, error) {
	cfg := Default()

	for _, file := range Locate(log) {
		if _, err := os.Stat(file); err == nil {
			if err := LoadConfig(cfg, file, log); err != nil {
				log.Warn().Err(err).Str("path", file).Msg("Failed to load config file")
			} else {
				log.Debug().Str("path", file).Msg("Loaded config")
			}
		} else if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", file).Msg("Error checking config file")
		}
	}

	if explicit != "" {
		if err := LoadConfig(cfg, explicit, log); err != nil {
			return nil, err
		}
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()
	LoadEnv(cfg, log)

	return cfg, nil
}

// LoadEnv applies SAMPLESET_* environment overrides to cfg. Values that do
// not parse are logged and ignored.
func LoadEnv(cfg *Config, log zerolog.Logger) {
	cfg.Root = envStr("ROOT", cfg.Root)
	cfg.OutputDir = envStr("OUTPUT_DIR", cfg.OutputDir)
	cfg.MetadataFile = envStr("METADATA_FILE", cfg.MetadataFile)
	cfg.AudioPattern = envStr("AUDIO_PATTERN", cfg.AudioPattern)
	cfg.AudioCaseInsensitive = envBool("AUDIO_CASE_INSENSITIVE", cfg.AudioCaseInsensitive, log)
	cfg.Workers = envInt("WORKERS", cfg.Workers, log)
	cfg.OnDecodeError = envStr("ON_DECODE_ERROR", cfg.OnDecodeError)
	cfg.Formats = envList("FORMATS", cfg.Formats)
	cfg.Instruments = envList("INSTRUMENTS", cfg.Instruments)
	cfg.Log.Level = envStr("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Dir = envStr("LOG_DIR", cfg.Log.Dir)
	cfg.Log.File = envStr("LOG_FILE", cfg.Log.File)
	cfg.Log.JSON = envBool("LOG_JSON", cfg.Log.JSON, log)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int, log zerolog.Logger) int {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		log.Warn().Str("var", EnvPrefix+key).Str("value", v).Msg("Ignoring malformed integer in environment")
	}
	return fallback
}

func envBool(key string, fallback bool, log zerolog.Logger) bool {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
		log.Warn().Str("var", EnvPrefix+key).Str("value", v).Msg("Ignoring malformed boolean in environment")
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback
	}
	return SplitList(v)
}

// SplitList splits a comma-separated list, dropping blank items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
