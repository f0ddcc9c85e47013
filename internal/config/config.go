package config

import "time"

type Config struct {
	General  `mapstructure:"general"`
	Run      `mapstructure:"run"`
	Log      `mapstructure:"log"`
	Tasks    `mapstructure:"tasks"`
	Registry `mapstructure:"registry"`
	Storage  `mapstructure:"storage"`
	DB       `mapstructure:"db"`
	Tracing  `mapstructure:"tracing"`
}

type General struct {
	Debug bool `mapstructure:"debug"`
}

type Run struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Timeout        time.Duration `mapstructure:"timeout"` // 0 disables the deadline
	StopTimeout    time.Duration `mapstructure:"stop_timeout"`
	CleanupTimeout time.Duration `mapstructure:"cleanup_timeout"`
	MemoryLimit    string        `mapstructure:"memory_limit"` // e.g. "6GiB"
}

type Log struct {
	MaxSize   int `mapstructure:"max_size"`   // bytes
	TailLines int `mapstructure:"tail_lines"` // lines kept once max_size is exceeded
}

type Tasks struct {
	InputDirs map[string]string `mapstructure:"input_dirs"` // task selector -> host input dir
}

type Registry struct {
	Address string `mapstructure:"address"`
}

type Storage struct {
	Backend   string `mapstructure:"backend"` // s3 or minio
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"` // minio only
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type DB struct {
	Path string `mapstructure:"path"`
}

type Tracing struct {
	Endpoint string `mapstructure:"endpoint"` // OTLP gRPC collector, empty disables tracing
	Insecure bool   `mapstructure:"insecure"`
}
