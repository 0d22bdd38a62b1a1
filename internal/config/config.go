package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FilesystemLocal = "local"
	FilesystemS3    = "s3"
)

const envPrefix = "CREAZA"

type Config struct {
	Port        int    `mapstructure:"port"`
	Host        string `mapstructure:"host"`
	Environment string `mapstructure:"environment"`

	CreazaHome string `mapstructure:"creaza_home"`
	ModelsDir  string `mapstructure:"models_dir"`
	AssetsDir  string `mapstructure:"assets_dir"`
	TempDir    string `mapstructure:"temp_dir"`
	PublicDir  string `mapstructure:"public_dir"`

	// OnnxLibPath points at the onnxruntime shared library. Empty means the
	// platform default lookup.
	OnnxLibPath string `mapstructure:"onnx_lib_path"`

	// PersistResults enables asynchronous upload of pipeline outputs to the
	// configured file storage.
	PersistResults bool   `mapstructure:"persist_results"`
	Filesystem     string `mapstructure:"filesystem_type"`

	S3          *S3Config          `mapstructure:"s3"`
	HuggingFace *HuggingFaceConfig `mapstructure:"huggingface"`
	OpenRouter  *OpenRouterConfig  `mapstructure:"openrouter"`
}

type S3Config struct {
	Folder      string `mapstructure:"folder"`
	Region      string `mapstructure:"region_name"`
	Bucket      string `mapstructure:"bucket_name"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	EndpointUrl string `mapstructure:"endpoint_url"`
	VanityUrl   string `mapstructure:"vanity_url"`
}

type HuggingFaceConfig struct {
	// APIKeys is the rotation pool for the inference API.
	APIKeys []string `mapstructure:"api_keys"`
	Model   string   `mapstructure:"model"`
	BaseUrl string   `mapstructure:"base_url"`
}

type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseUrl string `mapstructure:"base_url"`
}

var config *Config

// LoadEnvAndConfigFiles resolves the creaza home directory, loads the .env
// file if present, and reads config.yaml into viper.
func LoadEnvAndConfigFiles() error {
	creazaHome, err := getCreazaHome()
	if err != nil {
		return err
	}

	viper.Set("creaza_home", creazaHome)
	viper.SetDefault("models_dir", filepath.Join(creazaHome, "models"))
	viper.SetDefault("assets_dir", filepath.Join(creazaHome, "assets"))
	viper.SetDefault("temp_dir", filepath.Join(creazaHome, "temp"))
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("host", DefaultHost)
	viper.SetDefault("environment", "dev")
	viper.SetDefault("filesystem_type", FilesystemLocal)
	viper.SetDefault("huggingface:::model", DefaultTextToImageModel)

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(creazaHome, ".env")
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`, `-`, `_`))
	viper.AutomaticEnv()

	configFile := viper.GetString("config_file")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(creazaHome)
	}

	if err := LoadConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) ||
			errors.Is(err, os.ErrNotExist) {
			config = &Config{}
			if err := viper.Unmarshal(config); err != nil {
				return fmt.Errorf("error unmarshalling config: %w", err)
			}
			return nil
		}
		return err
	}

	return nil
}

func LoadConfig() error {
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config: %w", err)
	}

	config = &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	return nil
}

func GetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

func IsLoaded() bool {
	return config != nil
}

// Returns the creaza home directory path, from the first of:
// 1. The `creaza_home` flag bound in viper.
// 2. The `CREAZA_HOME` environment variable.
// 3. ~/.creaza
func getCreazaHome() (string, error) {
	creazaHome := viper.GetString("creaza_home")
	if creazaHome == "" {
		creazaHome = os.Getenv("CREAZA_HOME")
	}
	if creazaHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", ErrCreazaHomeNotSet
		}
		creazaHome = filepath.Join(home, DefaultHomeName)
	}

	return creazaHome, nil
}

// CreateHomeDirs makes the standard subdirectory layout under creaza home.
func CreateHomeDirs(cfg *Config) error {
	for _, dir := range []string{cfg.CreazaHome, cfg.ModelsDir, cfg.AssetsDir, cfg.TempDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return nil
}
