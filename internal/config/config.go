package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "BOOKING"

type Config interface {
	EnvConfig
	APIConfig
	StorageConfig
	UploadConfig
	DevAPIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetDataFolder() string
}

type APIConfig interface {
	GetAPIURL() string
	GetActivityLogLimit() int
}

type mainConfig struct {
	EnvVars
	API
	Storage
	Upload
	DevAPI
}

// New loads configuration from BOOKING_* environment variables and, when
// present, a bookingctl.yaml file. configFile overrides the search path.
func New(configFile string) (Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("bookingctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/bookingctl")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("[config.New] read config file: %w", err)
		}
	}

	return mainConfig{
		EnvVars: EnvVars{v: v},
		API:     API{v: v},
		Storage: Storage{v: v},
		Upload:  Upload{v: v},
		DevAPI:  DevAPI{v: v},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "Booking")
	v.SetDefault("env", "PROD")
	v.SetDefault("data_folder", "./data")

	v.SetDefault("api_url", "http://localhost:8000")
	v.SetDefault("activity_log_limit", 100)

	v.SetDefault("credential_store", string(StoreFile))
	v.SetDefault("credential_passphrase", "")

	v.SetDefault("upload.provider", string(UploadCloudinary))
	v.SetDefault("upload.max_bytes", 5*1024*1024)
	v.SetDefault("upload.cloudinary_url", "https://api.cloudinary.com")
	v.SetDefault("upload.bucket", "profile-pictures")
	v.SetDefault("upload.use_ssl", true)
	v.SetDefault("upload.region", "us-east-1")

	v.SetDefault("dev_api.addr", ":8000")
	v.SetDefault("dev_api.admin_username", "admin")
	v.SetDefault("dev_api.admin_email", "admin@example.com")
	v.SetDefault("dev_api.admin_password", "adminpass123")
}
