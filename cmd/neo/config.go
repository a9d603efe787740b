package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/neo/clientcli"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type settings struct {
	Config   string      `mapstructure:"config"`
	Profile  string      `mapstructure:"profile"`
	Endpoint string      `mapstructure:"endpoint"`
	APIKey   string      `mapstructure:"api_key"`
	JSON     bool        `mapstructure:"json"`
	Quiet    bool        `mapstructure:"quiet"`
	Log      logSettings `mapstructure:"log"`
}

type logSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// flagToViperKey maps CLI flag names to viper config keys.
// Flags not in this map use their name as-is.
var flagToViperKey = map[string]string{
	"api-key":    "api_key",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// loadSettings resolves global settings with precedence:
// explicitly set flags > NEOCITIES_* environment variables > defaults.
// Pass nil for flags to skip flag binding.
func loadSettings(flags *pflag.FlagSet) (*settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("NEOCITIES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	s.Log.Level = strings.ToLower(strings.TrimSpace(s.Log.Level))
	s.Log.Format = strings.ToLower(strings.TrimSpace(s.Log.Format))

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return &s, nil
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config", "")
	v.SetDefault("profile", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("api_key", "")
	v.SetDefault("json", false)
	v.SetDefault("quiet", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// configPath returns the profiles file to use and whether it was chosen explicitly.
func (s *settings) configPath() (string, bool) {
	if s.Config != "" {
		return s.Config, true
	}
	return clientcli.DefaultConfigPath(), false
}

// resolveConfig layers the settings over the selected profile.
// A missing default config file is not an error; an explicitly named
// config file or profile that cannot be found is.
func resolveConfig(s *settings) (*clientcli.Config, error) {
	if s == nil {
		s = &settings{}
	}

	var profileCfg *clientcli.Config

	path, explicit := s.configPath()
	if path != "" {
		file, err := clientcli.LoadConfigFile(path)
		switch {
		case err == nil:
			p, profileErr := file.GetProfile(s.Profile)
			switch {
			case profileErr == nil:
				profileCfg = clientcli.ConfigFromProfile(p)
			case errors.Is(profileErr, clientcli.ErrNoProfiles) && s.Profile == "":
			default:
				return nil, profileErr
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
			if s.Profile != "" {
				return nil, fmt.Errorf("%w: %s", clientcli.ErrProfileNotFound, s.Profile)
			}
		default:
			return nil, err
		}
	}

	return clientcli.MergeConfig(profileCfg, &clientcli.Config{
		Endpoint: s.Endpoint,
		APIKey:   s.APIKey,
	}), nil
}
