package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/kiwi/kgraph/internal/util"

	"github.com/go-playground/validator"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. KG_WORKERS
// or KG_AI_MODEL.
const EnvPrefix = "KG"

// AIConfig selects and configures the oracle backend.
type AIConfig struct {
	Adapter     string        `mapstructure:"adapter" validate:"oneof=openai ollama compat"`
	URL         string        `mapstructure:"url"`
	Key         string        `mapstructure:"key"`
	Model       string        `mapstructure:"model" validate:"required"`
	Temperature float64       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"min=0"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries" validate:"min=1,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// Config is the merged configuration of one kgraph run.
type Config struct {
	Input  []string `mapstructure:"input"`
	Output string   `mapstructure:"output" validate:"required"`
	Debug  bool     `mapstructure:"debug"`
	Test   bool     `mapstructure:"test"`

	Workers   int `mapstructure:"workers" validate:"min=1,max=64"`
	ChunkSize int `mapstructure:"chunk_size" validate:"min=1"`
	Overlap   int `mapstructure:"overlap" validate:"min=0,ltfield=ChunkSize"`

	NoStandardize bool `mapstructure:"no_standardize"`
	NoInference   bool `mapstructure:"no_inference"`

	MaxGaps         int           `mapstructure:"max_gaps" validate:"min=0"`
	SharedNeighbors int           `mapstructure:"shared_neighbors" validate:"min=1"`
	MaxPairs        int           `mapstructure:"max_pairs" validate:"min=1"`
	ChunkTimeout    time.Duration `mapstructure:"chunk_timeout"`

	S3     bool   `mapstructure:"s3"`
	Bucket string `mapstructure:"bucket" validate:"required_with=S3"`

	AI AIConfig `mapstructure:"ai"`
}

// flag name -> viper key
var flagKeys = map[string]string{
	"input":          "input",
	"output":         "output",
	"debug":          "debug",
	"test":           "test",
	"workers":        "workers",
	"chunk-size":     "chunk_size",
	"overlap":        "overlap",
	"no-standardize": "no_standardize",
	"no-inference":   "no_inference",
	"s3":             "s3",
}

// RegisterFlags adds the kgraph flags to cmd. Flag defaults are only used
// when neither the config file nor the environment sets a value.
func RegisterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceP("input", "i", nil, "input files, directories or URLs")
	f.StringP("output", "o", "output", "output directory, or key prefix with --s3")
	f.StringP("config", "c", "", "config file (yaml, toml or json)")
	f.Bool("debug", false, "enable debug logging")
	f.Bool("test", false, "render the built-in sample graph without calling the oracle")
	f.IntP("workers", "w", 2, "documents processed in parallel")
	f.Int("chunk-size", 500, "maximum words per chunk")
	f.Int("overlap", 50, "words of overlap between chunks")
	f.Bool("no-standardize", false, "skip entity standardization")
	f.Bool("no-inference", false, "skip relationship inference")
	f.Bool("s3", false, "write results to S3 instead of the local disk")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", []string{})
	v.SetDefault("output", "output")
	v.SetDefault("debug", util.GetEnvBool("DEBUG", false))
	v.SetDefault("test", false)
	v.SetDefault("workers", 2)
	v.SetDefault("chunk_size", 500)
	v.SetDefault("overlap", 50)
	v.SetDefault("no_standardize", false)
	v.SetDefault("no_inference", false)
	v.SetDefault("max_gaps", 10)
	v.SetDefault("shared_neighbors", 2)
	v.SetDefault("max_pairs", 5)
	v.SetDefault("chunk_timeout", "2m")
	v.SetDefault("s3", false)
	v.SetDefault("bucket", util.GetEnv("AWS_BUCKET"))

	v.SetDefault("ai.adapter", util.GetEnvString("AI_ADAPTER", "openai"))
	v.SetDefault("ai.url", util.GetEnv("AI_CHAT_URL"))
	v.SetDefault("ai.key", util.GetEnv("AI_CHAT_KEY"))
	v.SetDefault("ai.model", util.GetEnvString("AI_CHAT_MODEL", "gpt-4o-mini"))
	v.SetDefault("ai.temperature", util.GetEnvNumeric("AI_TEMPERATURE", 0))
	v.SetDefault("ai.max_tokens", util.GetEnvInt("AI_MAX_TOKENS", 0))
	v.SetDefault("ai.timeout", util.GetEnvDuration("AI_TIMEOUT", 60*time.Second).String())
	v.SetDefault("ai.retries", 3)
	v.SetDefault("ai.retry_delay", "2s")
}

// Load merges defaults, the optional config file, KG_ environment variables
// and the flags of cmd, then validates the result.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and that a run has something to do.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !c.Test && len(c.Input) == 0 {
		return fmt.Errorf("invalid config: no input given")
	}
	return nil
}
