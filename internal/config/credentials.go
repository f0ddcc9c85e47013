package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Credentials are the registry credentials read from the credentials file passed with -c.
// The harness hands them to the engine as is.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentials reads the [authentication] section of an INI credentials file.
func LoadCredentials(path string) (Credentials, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return Credentials{}, fmt.Errorf("unable to read credentials file: %w", err)
	}

	creds := Credentials{
		Username: v.GetString("authentication.username"),
		Password: v.GetString("authentication.password"),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("credentials file %s has no [authentication] username/password", path)
	}
	return creds, nil
}
