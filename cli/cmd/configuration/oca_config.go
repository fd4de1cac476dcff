package configuration

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	genericv1 "github.com/sk31337/oca/bindings/go/configuration/generic/v1/spec"
)

// oca configuration file and directory constants
const (
	OCAConfigDirectoryName   = "oca"
	OCAConfigFileName        = OCAConfigDirectoryName + "/config"
	NestedOCAConfigFileName  = ".ocaconfig"
	OCAConfigEnvironmentKey  = "OCA_CONFIG"
	OCAConfigCommandArgument = "config"
)

func RegisterConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String(OCAConfigCommandArgument, "", `supply configuration by a given configuration file.
By default (without specifying custom locations with this flag), the file will be read from one of the well known locations:
1. The path specified in the OCA_CONFIG environment variable
2. The XDG_CONFIG_HOME directory (if set), or the default XDG home ($HOME/.config), or the user's home directory
- $XDG_CONFIG_HOME/oca/config
- $XDG_CONFIG_HOME/.ocaconfig
- $HOME/.config/oca/config
- $HOME/.config/.ocaconfig
- $HOME/oca/config
- $HOME/.ocaconfig
3. The current working directory:
- $PWD/oca/config
- $PWD/.ocaconfig
Using the option, this configuration file be used instead of the lookup above.`)
}

func GetFlattenedOCAConfigForCommand(cmd *cobra.Command) (*genericv1.Config, error) {
	cfg, err := GetOCAConfigForCommand(cmd)
	if err != nil {
		return nil, err
	}
	return genericv1.FlatMap(cfg), nil
}

func GetOCAConfigForCommand(cmd *cobra.Command) (*genericv1.Config, error) {
	path, _ := cmd.Flags().GetString(OCAConfigCommandArgument)
	if path != "" {
		return GetConfigFromPath(path)
	}
	return GetOCAConfig()
}

// GetOCAConfig loads the configuration files found in the well known locations
// and merges them into a single configuration.
// Files that cannot be loaded are skipped with an error log.
// Additional paths are searched after the default locations.
func GetOCAConfig(additional ...string) (*genericv1.Config, error) {
	paths, err := GetOCAConfigPaths()
	paths = append(paths, additional...)
	if err != nil && len(additional) == 0 {
		return nil, err
	}
	cfgs := make([]*genericv1.Config, 0, len(paths))
	for _, path := range paths {
		cfg, err := GetConfigFromPath(path)
		if err != nil {
			slog.Error("oca config path was skipped due to an error loading it",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		slog.Debug("oca config was loaded successfully", slog.String("path", path))
		cfgs = append(cfgs, cfg)
	}
	return genericv1.FlatMap(cfgs...), nil
}

// GetConfigFromPath reads and decodes the YAML configuration file from the specified path.
func GetConfigFromPath(path string) (_ *genericv1.Config, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	var instance genericv1.Config
	if err := genericv1.Scheme.Decode(file, &instance); err != nil {
		return nil, err
	}
	if !genericv1.Scheme.IsRegistered(instance.Type) {
		return nil, fmt.Errorf("unsupported configuration type %q in %s", instance.Type, path)
	}
	return &instance, nil
}

// GetOCAConfigPaths searches for the configuration file in the following locations (in order):
// 1. The path specified in the OCA_CONFIG environment variable
// 2. The XDG_CONFIG_HOME directory (if set), or the default XDG home ($HOME/.config), or the user's home directory
// 3. The current working directory
//
// Every location contributes at most one file.
func GetOCAConfigPaths() ([]string, error) {
	var paths []string
	if path := getFromEnvironment(); path != "" {
		paths = append(paths, path)
	}
	if path := getFromXDGOrHomeDir(); path != "" {
		paths = append(paths, path)
	}
	if path := getFromWorkingDir(); path != "" {
		paths = append(paths, path)
	}

	if len(paths) > 0 {
		return paths, nil
	}

	return nil, fmt.Errorf("oca config not found in any known locations")
}

func getFromEnvironment() string {
	if env := os.Getenv(OCAConfigEnvironmentKey); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env
		}
	}
	return ""
}

// getFromXDGOrHomeDir checks XDG_CONFIG_HOME first if set, followed by the default
// XDG home (~/.config) and finally the user's home directory.
func getFromXDGOrHomeDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if path := checkConfigPaths(xdg); path != "" {
			return path
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		if path := checkConfigPaths(filepath.Join(home, ".config")); path != "" {
			return path
		}
		if path := checkConfigPaths(home); path != "" {
			return path
		}
	}

	return ""
}

func getFromWorkingDir() string {
	if wd, err := os.Getwd(); err == nil {
		return checkConfigPaths(wd)
	}
	return ""
}

// checkConfigPaths returns the first config file variation found in base.
func checkConfigPaths(base string) string {
	for _, name := range []string{OCAConfigFileName, NestedOCAConfigFileName} {
		path := filepath.Join(base, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
