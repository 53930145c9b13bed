package config

import (
	"fmt"
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
	"github.com/relloyd/starpipe/helper"
)

// getConfigHomeDir returns the full path to the directory that stores config files.
// SP_HOME overrides the default of ~/.starpipe.
func getConfigHomeDir() (string, error) {
	if dir := helper.ReadValueFromEnvWithDefault(helper.EnvVarName("home"), ""); dir != "" {
		return dir, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("error finding home directory: %w", err)
	}
	return path.Join(home, MainDir), nil
}

// makeDir wll make the given directory if it does not already exist.
// If it exist then return nil.
// An error is returned if there is a problem creating the dir.
func makeDir(dir string) error {
	_, err := os.Stat(dir)
	if os.IsNotExist(err) { // if it doesn't exist...
		if err = os.MkdirAll(dir, 0755); err != nil { // if the dir was NOT created...
			return fmt.Errorf("error creating directory %v", dir)
		}
	} else if err != nil { // if there was an error getting status...
		return err
	}
	return nil
}
