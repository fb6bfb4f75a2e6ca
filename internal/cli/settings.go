package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultFormat   = "text"
	defaultDatabase = "searchql.db"
	defaultPolicy   = "abort"

	// EnvPrefix prefixes environment overrides: SEARCHQL_DB, SEARCHQL_FORMAT.
	EnvPrefix = "SEARCHQL"
)

// Settings are the CLI runtime settings.
//
// Precedence, highest first: explicit flag, SEARCHQL_* environment
// variable, settings file, default.
type Settings struct {
	Config   string `mapstructure:"config"`
	Database string `mapstructure:"db"`
	Format   string `mapstructure:"format"`
	Policy   string `mapstructure:"policy"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	return &Settings{
		Database: defaultDatabase,
		Format:   defaultFormat,
		Policy:   defaultPolicy,
	}
}

// LoadSettings merges defaults, the optional settings file, environment
// variables and the command's flags. cmd may be nil.
func LoadSettings(path string, cmd *cobra.Command) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for _, key := range []string{"config", "db", "format", "policy"} {
			flag := cmd.Flags().Lookup(key)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", key, err)
			}
		}
	}

	s := new(Settings)
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config", "")
	v.SetDefault("db", defaultDatabase)
	v.SetDefault("format", defaultFormat)
	v.SetDefault("policy", defaultPolicy)
}
