package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/agentdir/internal/branding"
	"github.com/agentx-labs/agentdir/internal/platform"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys.
const (
	KeyStoreDriver  = "store.driver"
	KeyStorePath    = "store.path"
	KeyRegistryPath = "registry.path"
	KeyLogLevel     = "log.level"
	KeyLogFormat    = "log.format"
	KeyServeAddr    = "serve.addr"
)

// Keys lists every recognized setting key.
var Keys = []string{
	KeyStoreDriver,
	KeyStorePath,
	KeyRegistryPath,
	KeyLogLevel,
	KeyLogFormat,
	KeyServeAddr,
}

// Settings is the typed view of the configuration.
type Settings struct {
	Store struct {
		Driver string `mapstructure:"driver"`
		Path   string `mapstructure:"path"`
	} `mapstructure:"store"`
	Registry struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"registry"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Serve struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"serve"`
}

// Dir returns the path to the config directory (~/.agentdir/).
func Dir() string {
	if dir := os.Getenv(branding.EnvVar("HOME")); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.agentdir/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist. The
// directory holds agent records, so it is private to the owner.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, platform.DirPermSecure); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
// Nested keys map to env vars with dots replaced by underscores, e.g.
// store.driver → AGENTDIR_STORE_DRIVER.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

func setDefaults() {
	viper.SetDefault(KeyStoreDriver, "file")
	viper.SetDefault(KeyStorePath, "")
	viper.SetDefault(KeyRegistryPath, filepath.Join(Dir(), "services.yaml"))
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLogFormat, "console")
	viper.SetDefault(KeyServeAddr, ":8085")
}

// Current decodes the loaded configuration into Settings. An empty store
// path resolves to the driver's default file under Dir().
func Current() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if s.Store.Path == "" {
		s.Store.Path = defaultStorePath(s.Store.Driver)
	}
	s.Store.Path = expandHome(s.Store.Path)
	s.Registry.Path = expandHome(s.Registry.Path)
	return &s, nil
}

func defaultStorePath(driver string) string {
	if driver == "sqlite" {
		return filepath.Join(Dir(), "agents.db")
	}
	return filepath.Join(Dir(), "agents.yaml")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// IsKnown reports whether key is a recognized setting.
func IsKnown(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !IsKnown(key) {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys, ", "))
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
