// Package config loads the habitat configuration.
//
// A habitat is a deployment environment (int, stg, prd, ...) bound to one
// GCP project. Habitats live in a TOML file, one table per habitat:
//
//	[int]
//	project = "acme-int-1234"
//
//	[prd]
//	project = "acme-prd-1234"
//
// The file is looked up in ~/.bcls/config.toml, then ./config.toml. Any
// habitat project can also be supplied via environment, e.g.
// BCLS_INT_PROJECT, which takes precedence over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "BCLS"

// ErrUnknownHabitat is returned when a habitat has no configured project.
var ErrUnknownHabitat = errors.New("unknown habitat")

// Habitat is one deployment environment.
type Habitat struct {
	Project string
}

// File is the loaded habitat configuration.
type File struct {
	v *viper.Viper
}

// Load reads the habitat configuration. With an empty configPath the default
// locations are searched; a missing file is not an error since habitats may
// be configured entirely through the environment.
func Load(configPath string) (*File, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
		return &File{v: v}, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".bcls"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &File{v: v}, nil
}

// Habitat resolves one habitat by name.
func (f *File) Habitat(name string) (Habitat, error) {
	project := f.v.GetString(name + ".project")
	if project == "" {
		return Habitat{}, fmt.Errorf("%w: %q", ErrUnknownHabitat, name)
	}
	return Habitat{Project: project}, nil
}

// Habitats returns the names of all habitats present in the config file,
// sorted. Env-only habitats are not enumerable and do not appear here.
func (f *File) Habitats() []string {
	var names []string
	for name, value := range f.v.AllSettings() {
		table, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		if _, ok := table["project"]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
