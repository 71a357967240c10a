package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cordialsys/stakeboard/config/constants"
	vault "github.com/hashicorp/vault/api"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var noSuchFile = "no such file"
var notFoundIn = "not found in"

var ErrInvalidSecretSource = errors.New("invalid secret source for: ***")

func getViper(path string) *viper.Viper {
	// new instance of viper so nothing global leaks between loads
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv(constants.ConfigEnv)
	}
	// an explicit file wins over the search paths
	v.SetConfigFile(path)

	// otherwise, prioritize current path or parent
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	// Lastly, check home dir
	v.AddConfigPath(constants.DefaultHome)

	return v
}

// RequireConfig loads configuration from the default locations.
// See RequireConfigFile.
func RequireConfig(section string, unmarshalDst interface{}, defaults interface{}) error {
	return RequireConfigFile("", section, unmarshalDst, defaults)
}

// RequireConfigFile loads configuration.
//  1. Read a configuration file from path, STAKEBOARD_CONFIG, or the search paths.
//  2. If a section is provided only that section is deserialized.
//  3. Values missing from the file are taken from defaults, when provided.
//  4. If defaults are provided, a missing file is not an error.
func RequireConfigFile(path string, section string, unmarshalDst interface{}, defaults interface{}) error {
	v := getViper(path)
	err := v.ReadInConfig()
	if err != nil {
		msg := strings.ToLower(err.Error())
		if defaults != nil && (strings.Contains(msg, noSuchFile) || strings.Contains(msg, notFoundIn)) {
			// use the defaults by serializing and deserializing
			bz, err := yaml.Marshal(defaults)
			if err != nil {
				return err
			}
			return yaml.Unmarshal(bz, unmarshalDst)
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	// viper lowercases keys and does not support partial deserialization,
	// so re-serialize and parse with yaml
	var asMap map[string]interface{}
	if section != "" {
		asMap = v.GetStringMap(section)
	} else {
		asMap = v.AllSettings()
	}
	bz, err := yaml.Marshal(asMap)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(bz, unmarshalDst); err != nil {
		return err
	}

	if defaults != nil {
		return ApplyDefaults(defaults, unmarshalDst, unmarshalDst)
	}
	return nil
}

func newVaultClient(cfg *vault.Config) (VaultLoader, error) {
	cli, err := vault.NewClient(cfg)
	if err != nil {
		return &DefaultVaultLoader{}, err
	}
	return &DefaultVaultLoader{Client: cli}, nil
}

// NewVaultClient is replaceable in tests.
var NewVaultClient = newVaultClient

type DefaultVaultLoader struct {
	*vault.Client
}

var _ VaultLoader = &DefaultVaultLoader{}

func (v *DefaultVaultLoader) LoadSecretData(vaultPath string) (*vault.Secret, error) {
	secret, err := v.Logical().Read(vaultPath)
	if err != nil || secret == nil { // yes, secret can be nil
		return &vault.Secret{}, err
	}
	return secret, nil
}

type VaultLoader interface {
	LoadSecretData(path string) (*vault.Secret, error)
}

// GetSecret dereferences a secret reference.
func GetSecret(uri string) (string, error) {
	splits := strings.Split(uri, ":")
	if len(splits) < 2 {
		return "", ErrInvalidSecretSource
	}

	path := splits[1]
	switch SecretType(splits[0]) {
	case Env:
		return strings.TrimSpace(os.Getenv(path)), nil
	case Raw:
		return strings.Join(splits[1:], ":"), nil
	case File:
		if len(path) > 1 && path[0] == '~' {
			path = strings.Replace(path, "~", os.Getenv("HOME"), 1)
		}
		file, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer file.Close()
		result, err := io.ReadAll(file)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(result)), nil
	case Vault:
		vaultArgs := strings.Split(strings.Join(splits[1:], ":"), ",")
		if len(vaultArgs) != 2 {
			return "", errors.New("vault secret has 2 comma separated arguments (url,path)")
		}
		// expect VAULT_TOKEN in env
		vaultUrl := vaultArgs[0]
		vaultFullPath := vaultArgs[1]

		client, err := NewVaultClient(&vault.Config{Address: vaultUrl})
		if err != nil {
			return "", err
		}

		idx := strings.LastIndex(vaultFullPath, "/")
		if idx == -1 || idx == len(vaultFullPath)-1 {
			return "", errors.New("malformed vault secret in config file")
		}
		vaultKey := vaultFullPath[idx+1:]
		vaultPath := vaultFullPath[:idx]

		secret, err := client.LoadSecretData(vaultPath)
		if err != nil {
			return "", err
		}
		data, _ := secret.Data["data"].(map[string]interface{})
		result, _ := data[vaultKey].(string)
		return strings.TrimSpace(result), nil
	}
	return "", ErrInvalidSecretSource
}
