package config

import (
	"strings"

	"github.com/spf13/viper"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.v.GetString("app_name")
}

// GetEnv returns DEV, TEST or PROD; anything else is treated as PROD.
func (e EnvVars) GetEnv() string {
	switch env := strings.ToUpper(e.v.GetString("env")); env {
	case "DEV", "TEST":
		return env
	default:
		return "PROD"
	}
}

func (e EnvVars) GetDataFolder() string {
	return e.v.GetString("data_folder")
}

type API struct {
	v *viper.Viper
}

var _ APIConfig = API{}

// GetAPIURL returns the backend base URL without a trailing slash.
func (a API) GetAPIURL() string {
	return strings.TrimRight(a.v.GetString("api_url"), "/")
}

func (a API) GetActivityLogLimit() int {
	if limit := a.v.GetInt("activity_log_limit"); limit > 0 {
		return limit
	}
	return 100
}
