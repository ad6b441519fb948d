package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/recipe"
)

type Config struct {
	Port      string       `yaml:"port" validate:"required,numeric"`
	DBPath    string       `yaml:"db_path" validate:"required"`
	LogLevel  string       `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string       `yaml:"log_format" validate:"oneof=text json"`
	JWT       JWTConfig    `yaml:"jwt"`
	OpenAI    OpenAIConfig `yaml:"openai"`
	// RecipeRatePerMinute caps recipe generations per user.
	RecipeRatePerMinute int `yaml:"recipe_rate_per_minute" validate:"min=1"`
	// WSOriginPatterns are extra origins allowed to open /ws.
	WSOriginPatterns []string     `yaml:"ws_origin_patterns"`
	Backup           BackupConfig `yaml:"backup"`
}

type JWTConfig struct {
	Secret string `yaml:"secret" validate:"required,min=16"`
	Issuer string `yaml:"issuer"`
}

type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" validate:"min=0"`
}

// BackupConfig controls encrypted database snapshots. Backups go to S3 when
// S3 is fully configured and to Dir otherwise.
type BackupConfig struct {
	Passphrase string          `yaml:"passphrase"`
	Dir        string          `yaml:"dir"`
	Keep       int             `yaml:"keep" validate:"min=0"`
	Interval   time.Duration   `yaml:"interval" validate:"min=0"`
	S3         backup.S3Config `yaml:"s3"`
}

// Scheduled reports whether serve should take periodic backups.
func (b BackupConfig) Scheduled() bool {
	return b.Interval > 0 && b.Passphrase != ""
}

// Target returns where backups are stored.
func (b BackupConfig) Target() backup.Target {
	if b.S3.Enabled() {
		return backup.NewS3Target(b.S3)
	}
	return backup.DirTarget{Dir: b.Dir}
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:      "8080",
		DBPath:    "larder.db",
		LogLevel:  "info",
		LogFormat: "text",
		JWT: JWTConfig{
			Issuer: "larder",
		},
		OpenAI: OpenAIConfig{
			Model:   recipe.DefaultModel,
			Timeout: 60 * time.Second,
		},
		RecipeRatePerMinute: 5,
		Backup: BackupConfig{
			Dir:  "backups",
			Keep: 7,
		},
	}
}

// Load builds the configuration from defaults, a .env file in the working
// directory, the optional YAML file at path and finally LARDER_* environment
// variables. An empty path skips the YAML step.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "LARDER_PORT")
	setString(&cfg.DBPath, "LARDER_DB_PATH")
	setString(&cfg.LogLevel, "LARDER_LOG_LEVEL")
	setString(&cfg.LogFormat, "LARDER_LOG_FORMAT")
	setString(&cfg.JWT.Secret, "LARDER_JWT_SECRET")
	setString(&cfg.JWT.Issuer, "LARDER_JWT_ISSUER")
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.APIKey, "LARDER_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "LARDER_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "LARDER_OPENAI_BASE_URL")

	if v := os.Getenv("LARDER_OPENAI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LARDER_OPENAI_TIMEOUT: %w", err)
		}
		cfg.OpenAI.Timeout = d
	}
	setString(&cfg.Backup.Passphrase, "LARDER_BACKUP_PASSPHRASE")
	setString(&cfg.Backup.Dir, "LARDER_BACKUP_DIR")
	setString(&cfg.Backup.S3.Endpoint, "LARDER_S3_ENDPOINT")
	setString(&cfg.Backup.S3.Bucket, "LARDER_S3_BUCKET")
	setString(&cfg.Backup.S3.Region, "LARDER_S3_REGION")
	setString(&cfg.Backup.S3.AccessKey, "LARDER_S3_ACCESS_KEY")
	setString(&cfg.Backup.S3.SecretKey, "LARDER_S3_SECRET_KEY")
	setString(&cfg.Backup.S3.Prefix, "LARDER_S3_PREFIX")

	if err := setInt(&cfg.RecipeRatePerMinute, "LARDER_RECIPE_RATE_PER_MINUTE"); err != nil {
		return err
	}
	if err := setInt(&cfg.Backup.Keep, "LARDER_BACKUP_KEEP"); err != nil {
		return err
	}
	if v := os.Getenv("LARDER_BACKUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LARDER_BACKUP_INTERVAL: %w", err)
		}
		cfg.Backup.Interval = d
	}
	if v := os.Getenv("LARDER_WS_ORIGINS"); v != "" {
		cfg.WSOriginPatterns = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.WSOriginPatterns = append(cfg.WSOriginPatterns, p)
			}
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Validate checks the fields the server needs to start.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Recipe returns the generator settings.
func (c Config) Recipe() recipe.Config {
	return recipe.Config{
		APIKey:  c.OpenAI.APIKey,
		Model:   c.OpenAI.Model,
		BaseURL: c.OpenAI.BaseURL,
		Timeout: c.OpenAI.Timeout,
	}
}
