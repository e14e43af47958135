package config

import "github.com/spf13/viper"

// DevAPIConfig configures the local fake backend started by cmd/devapi.
type DevAPIConfig interface {
	GetDevAPIAddr() string
	GetDevAPIAdmin() SeedAdmin
}

// SeedAdmin is the superuser created when the fake backend starts.
type SeedAdmin struct {
	Username string
	Email    string
	Password string
}

type DevAPI struct {
	v *viper.Viper
}

var _ DevAPIConfig = DevAPI{}

func (d DevAPI) GetDevAPIAddr() string {
	return d.v.GetString("dev_api.addr")
}

func (d DevAPI) GetDevAPIAdmin() SeedAdmin {
	return SeedAdmin{
		Username: d.v.GetString("dev_api.admin_username"),
		Email:    d.v.GetString("dev_api.admin_email"),
		Password: d.v.GetString("dev_api.admin_password"),
	}
}
