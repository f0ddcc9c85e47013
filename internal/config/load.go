package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfg Config
var home = os.Getenv("HOME")

const configName = "runner_config"

func getViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("json")
	v.AddConfigPath(".")             // config file reading order starts with current working directory
	v.AddConfigPath("$HOME/.runner") // then home directory
	v.AddConfigPath("/etc/runner/")  // finally /etc/runner
	v.SetEnvPrefix("RUNNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaultConfig() *viper.Viper {
	v := getViper()
	v.SetDefault("general.debug", false)
	v.SetDefault("run.poll_interval", "60s")
	v.SetDefault("run.timeout", "12h")
	v.SetDefault("run.stop_timeout", "10s")
	v.SetDefault("run.cleanup_timeout", "2m")
	v.SetDefault("run.memory_limit", "6GiB")
	v.SetDefault("log.max_size", 50000)
	v.SetDefault("log.tail_lines", 5)
	v.SetDefault("tasks.input_dirs", map[string]string{
		"1": "/home/ec2-user/task1_input",
		"2": "/home/ec2-user/task2_input",
	})
	v.SetDefault("registry.address", "docker.synapse.org")
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "logs")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("db.path", "runner.db")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", false)
	return v
}

func LoadConfig() {
	paths := []string{
		".",
		home + "/.runner",
		"/etc/runner",
	}
	v := setDefaultConfig()

	config, err := findConfig(paths, configName+".json")
	if err != nil {
		setDefaultConfig().Unmarshal(&cfg)
		return
	}

	modifiedConfig := removeComments(config)
	if err = v.ReadConfig(bytes.NewBuffer(modifiedConfig)); err != nil { // Viper only reads buffer, keeping comments in original config
		warnDefaults(err)
		setDefaultConfig().Unmarshal(&cfg)
		return
	}

	if err = v.Unmarshal(&cfg); err != nil {
		warnDefaults(err)
		setDefaultConfig().Unmarshal(&cfg)
	}
}

// warnDefaults reports a config file that was found but could not be used. The package logger
// depends on this package, so a plain zap logger is built here.
func warnDefaults(err error) {
	log, lerr := zap.NewProduction()
	if lerr != nil {
		return
	}
	defer log.Sync()
	log.Warn("ignoring unreadable "+configName+".json, using defaults", zap.Error(err))
}

// LoadConfigFile reads configuration from an explicit path, on top of the defaults.
func LoadConfigFile(path string) error {
	config, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read config %s: %w", path, err)
	}

	v := setDefaultConfig()
	if err := v.ReadConfig(bytes.NewBuffer(removeComments(config))); err != nil {
		return fmt.Errorf("unable to parse config %s: %w", path, err)
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return fmt.Errorf("unable to decode config %s: %w", path, err)
	}
	cfg = loaded
	return nil
}

func SetConfig(key string, value interface{}) {
	v := setDefaultConfig()
	v.Set(key, value)
	err := v.Unmarshal(&cfg)
	if err != nil {
		setDefaultConfig().Unmarshal(&cfg)
	}
}

func GetConfig() *Config {
	if reflect.DeepEqual(cfg, Config{}) {
		LoadConfig()
	}
	return &cfg
}

// MemoryLimitBytes parses run.memory_limit ("6GiB", "6442450944") into bytes.
func (c *Config) MemoryLimitBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.Run.MemoryLimit)
	if err != nil {
		return 0, fmt.Errorf("invalid run.memory_limit %q: %w", c.Run.MemoryLimit, err)
	}
	return int64(n), nil
}

// Validate rejects settings the harness cannot run with.
func (c *Config) Validate() error {
	if c.Run.PollInterval <= 0 {
		return fmt.Errorf("run.poll_interval must be positive")
	}
	if c.Run.Timeout < 0 {
		return fmt.Errorf("run.timeout must not be negative")
	}
	if c.Log.MaxSize <= 0 || c.Log.TailLines <= 0 {
		return fmt.Errorf("log.max_size and log.tail_lines must be positive")
	}
	if _, err := c.MemoryLimitBytes(); err != nil {
		return err
	}
	if len(c.Tasks.InputDirs) == 0 {
		return fmt.Errorf("tasks.input_dirs must name at least one task")
	}
	return nil
}

func findConfig(paths []string, filename string) ([]byte, error) {
	for _, path := range paths {
		fullPath := filepath.Join(path, filename)
		_, err := os.Stat(fullPath)
		if err == nil {
			config, err := os.ReadFile(fullPath)
			if err == nil {
				return config, nil
			} else {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("file not found in any of the paths")
}

// removeComments drops // comments that start outside a JSON string, so values such as
// "http://minio.internal:9000" survive. The newline ending a comment is kept.
func removeComments(configBytes []byte) []byte {
	result := make([]byte, 0, len(configBytes))
	inString, escaped := false, false

	for i := 0; i < len(configBytes); i++ {
		c := configBytes[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(configBytes) && configBytes[i+1] == '/':
			for i < len(configBytes) && configBytes[i] != '\n' {
				i++
			}
			if i < len(configBytes) {
				result = append(result, '\n')
			}
			continue
		}
		result = append(result, c)
	}
	return result
}
