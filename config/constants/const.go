package constants

import (
	"os"
	"path/filepath"
)

const DefaultHomeEnv string = "STAKEBOARD_HOME"
const ConfigEnv string = "STAKEBOARD_CONFIG"

// Base name (without extension) of the configuration file.
const ConfigName string = "stakeboard"

var DefaultHome string

func init() {
	if home := os.Getenv(DefaultHomeEnv); home != "" {
		DefaultHome = home
		return
	}
	// ~/.stakeboard default
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		DefaultHome = "/data"
	} else {
		DefaultHome = filepath.Join(userHomeDir, ".stakeboard")
	}
}
