package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/brown-library/bdr-scripts/pkg/logger"
)

// Config holds the configuration for every subcommand.
// Each subcommand validates only the sections it uses.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Update   UpdateConfig   `mapstructure:"update"`
	SaveMods SaveModsConfig `mapstructure:"save_mods"`
	Purge    PurgeConfig    `mapstructure:"purge"`
	Delete   DeleteConfig   `mapstructure:"delete"`
}

// CatalogConfig configures access to the repository search API.
type CatalogConfig struct {
	APIRoot       string        `mapstructure:"api_root" validate:"required,http_url"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retries       int           `mapstructure:"retries" validate:"gte=0,lte=10"`
	CollectionPID string        `mapstructure:"collection_pid" validate:"required"`
}

// UpdateConfig configures the bulk MODS update pipeline.
type UpdateConfig struct {
	BinaryPath string        `mapstructure:"binary_path" validate:"required,file"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Binary     BinaryConfig  `mapstructure:"binary"`
}

// BinaryConfig is passed through to the external update binary as UM__ variables.
type BinaryConfig struct {
	APIAgent    string `mapstructure:"api_agent" validate:"required"`
	APIIdentity string `mapstructure:"api_identity" validate:"required"`
	APIRootURL  string `mapstructure:"api_root_url" validate:"required,http_url"`
	LogLevel    string `mapstructure:"log_level"`
	Message     string `mapstructure:"message" validate:"required"`
}

// Environ returns the UM__ variables in KEY=value form.
func (b BinaryConfig) Environ() []string {
	return []string{
		"UM__API_AGENT=" + b.APIAgent,
		"UM__API_IDENTITY=" + b.APIIdentity,
		"UM__API_ROOT_URL=" + b.APIRootURL,
		"UM__LOGLEVEL=" + b.LogLevel,
		"UM__MESSAGE=" + b.Message,
	}
}

// SaveModsConfig configures the MODS downloader.
type SaveModsConfig struct {
	URLPattern string `mapstructure:"url_pattern" validate:"required,contains=PID_VAR"`
	Processes  int    `mapstructure:"processes" validate:"gte=1,lte=64"`
}

// PurgeConfig configures the OCFL purge command.
type PurgeConfig struct {
	OCFLDir  string `mapstructure:"ocfl_dir" validate:"required,dir"`
	RocflCmd string `mapstructure:"rocfl_cmd" validate:"required"`
	LogFile  string `mapstructure:"log_file"`
	PIDsFile string `mapstructure:"pids_file"`
	DryRun   string `mapstructure:"dry_run" validate:"required,oneof=true false True False TRUE FALSE"`
}

// IsDryRun reports whether DRY_RUN is set to true.
func (p PurgeConfig) IsDryRun() bool {
	return strings.EqualFold(p.DryRun, "true")
}

// DeleteConfig configures the delete command.
type DeleteConfig struct {
	StorageRoot string `mapstructure:"storage_root" validate:"required,dir"`
	RocflCmd    string `mapstructure:"rocfl_cmd" validate:"required"`
}

// binding maps a config key to the environment variables that can set it.
// The first variable found wins.
type binding struct {
	key  string
	envs []string
}

var bindings = []binding{
	{"log_level", []string{"UHHM__LOGLEVEL", "SM__LOGLEVEL", "DEL__LOGLEVEL", "BDR__LOGLEVEL"}},

	{"catalog.api_root", []string{"UHHM__BDR_API_URL_ROOT", "BDR__API_URL_ROOT"}},
	{"catalog.timeout", []string{"BDR__HTTP_TIMEOUT"}},
	{"catalog.retries", []string{"BDR__HTTP_RETRIES"}},
	{"catalog.collection_pid", []string{"BDR__COLLECTION_PID"}},

	{"update.binary_path", []string{"UHHM__UPDATE_MODS_BINARY_PATH"}},
	{"update.timeout", []string{"UHHM__UPDATE_TIMEOUT"}},
	{"update.binary.api_agent", []string{"UM__API_AGENT"}},
	{"update.binary.api_identity", []string{"UM__API_IDENTITY"}},
	{"update.binary.api_root_url", []string{"UM__API_ROOT_URL"}},
	{"update.binary.log_level", []string{"UM__LOGLEVEL"}},
	{"update.binary.message", []string{"UM__MESSAGE"}},

	{"save_mods.url_pattern", []string{"SM__MODS_URL_PATTERN"}},
	{"save_mods.processes", []string{"SM__PROCESSES"}},

	{"purge.ocfl_dir", []string{"OCFL_DIR"}},
	{"purge.rocfl_cmd", []string{"ROCFL_CMD"}},
	{"purge.log_file", []string{"LOG_FILE"}},
	{"purge.pids_file", []string{"PIDS_FILE"}},
	{"purge.dry_run", []string{"DRY_RUN"}},

	{"delete.storage_root", []string{"DEL__STORAGE_ROOT_PATH"}},
	{"delete.rocfl_cmd", []string{"DEL__ROCFL_CMD", "ROCFL_CMD"}},
}

// Init binds the configuration keys to their environment variables.
func Init() {
	for _, b := range bindings {
		args := append([]string{b.key}, b.envs...)
		if err := viper.BindEnv(args...); err != nil {
			logger.Error("binding %s: %v", b.key, err)
		}
	}
	setDefaults()
}

// setDefaults sets the default values for the configuration
func setDefaults() {
	viper.SetDefault("log_level", "info")

	viper.SetDefault("catalog.api_root", "https://repository.library.brown.edu/api")
	viper.SetDefault("catalog.timeout", 30*time.Second)
	viper.SetDefault("catalog.retries", 3)
	viper.SetDefault("catalog.collection_pid", "bdr:wum3gm43")

	viper.SetDefault("update.timeout", 5*time.Minute)
	viper.SetDefault("update.binary.log_level", "INFO")

	viper.SetDefault("save_mods.processes", 2)

	viper.SetDefault("purge.rocfl_cmd", "rocfl")
	viper.SetDefault("delete.rocfl_cmd", "rocfl")
}

// Load loads the configuration from the environment variables and .env file.
// Only the shared sections are validated here.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	if err := Validate(&cfg.Catalog); err != nil {
		return nil, err
	}
	if !logger.ValidLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", cfg.LogLevel)
	}
	cfg.Catalog.APIRoot = strings.TrimRight(cfg.Catalog.APIRoot, "/")

	return &cfg, nil
}

// LoadDotEnv loads .env from the working directory if it exists.
// Variables already set in the environment take precedence.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// sectionKeys maps section struct names to their viper key prefix.
var sectionKeys = map[string]string{
	"CatalogConfig":  "catalog",
	"UpdateConfig":   "update",
	"SaveModsConfig": "save_mods",
	"PurgeConfig":    "purge",
	"DeleteConfig":   "delete",
}

// Validate validates one configuration section.
// Failures name the environment variables to set.
func Validate(section any) error {
	err := validate.Struct(section)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s: failed %q check (value %q)", envNameFor(fe.Namespace()), fe.Tag(), fmt.Sprint(fe.Value())))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// envNameFor turns a validator namespace such as "UpdateConfig.binary.api_agent"
// into the environment variable that sets it.
func envNameFor(namespace string) string {
	head, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	prefix, ok := sectionKeys[head]
	if !ok {
		return namespace
	}
	key := prefix + "." + rest
	for _, b := range bindings {
		if b.key == key {
			return strings.Join(b.envs, " or ")
		}
	}
	return key
}
