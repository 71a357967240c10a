package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) SetupTest() {
	NewVaultClient = newVaultClient
}

func TestConfig(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

type testChain struct {
	URL          string        `yaml:"url,omitempty"`
	Decimals     int           `yaml:"decimals,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

type testConfig struct {
	Chain   testChain `yaml:"chain,omitempty"`
	Account string    `yaml:"account,omitempty"`
	Tags    []string  `yaml:"tags,omitempty"`
}

func writeFile(s *ConfigTestSuite, name string, contents string) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func (s *ConfigTestSuite) TestRequireConfigFileWithDefaults() {
	require := s.Require()
	path := writeFile(s, "stakeboard.yaml", `
chain:
  url: http://rpc.example:8545
  poll_interval: 2s
account: "0xabc"
`)
	defaults := &testConfig{
		Chain: testChain{URL: "http://localhost:8545", Decimals: 18, PollInterval: 4 * time.Second},
		Tags:  []string{"default"},
	}
	cfg := &testConfig{}
	require.NoError(RequireConfigFile(path, "", cfg, defaults))
	require.Equal("http://rpc.example:8545", cfg.Chain.URL)
	require.Equal(18, cfg.Chain.Decimals)
	require.Equal(2*time.Second, cfg.Chain.PollInterval)
	require.Equal("0xabc", cfg.Account)
	require.Equal([]string{"default"}, cfg.Tags)
}

func (s *ConfigTestSuite) TestRequireConfigFileSection() {
	require := s.Require()
	path := writeFile(s, "stakeboard.yaml", `
chain:
  url: http://rpc.example:8545
  decimals: 6
`)
	chain := &testChain{}
	require.NoError(RequireConfigFile(path, "chain", chain, nil))
	require.Equal("http://rpc.example:8545", chain.URL)
	require.Equal(6, chain.Decimals)
}

func (s *ConfigTestSuite) TestRequireConfigMissingFile() {
	require := s.Require()
	missing := filepath.Join(s.T().TempDir(), "nope.yaml")

	cfg := &testConfig{}
	err := RequireConfigFile(missing, "", cfg, &testConfig{Account: "0xdefault"})
	require.NoError(err)
	require.Equal("0xdefault", cfg.Account)

	err = RequireConfigFile(missing, "", cfg, nil)
	require.ErrorContains(err, "fatal error reading config file")
}

func (s *ConfigTestSuite) TestGetSecretEnv() {
	require := s.Require()
	os.Setenv("SBTEST", " mysecret ")
	defer os.Unsetenv("SBTEST")
	secret, err := GetSecret("env:SBTEST")
	require.NoError(err)
	require.Equal("mysecret", secret)
	require.Equal("mysecret", Secret("env:SBTEST").LoadOrBlank())
}

func (s *ConfigTestSuite) TestGetSecretRaw() {
	require := s.Require()
	secret, err := NewRawSecret("abc:def").Load()
	require.NoError(err)
	require.Equal("abc:def", secret)
}

func (s *ConfigTestSuite) TestGetSecretFileErrFileNotFound() {
	require := s.Require()
	secret, err := GetSecret("file:~/config-in-home-does-not-exist")
	require.Equal("", secret)
	require.Error(err)
}

func (s *ConfigTestSuite) TestGetSecretErrNoColon() {
	require := s.Require()
	secret, err := GetSecret("invalid")
	require.Equal("", secret)
	require.ErrorIs(err, ErrInvalidSecretSource)
}

func (s *ConfigTestSuite) TestGetSecretErrInvalidType() {
	require := s.Require()
	secret, err := GetSecret("invalid:value")
	require.Equal("", secret)
	require.ErrorIs(err, ErrInvalidSecretSource)
	require.False(HasTypePrefix("invalid:value"))
	require.True(HasTypePrefix("vault:a,b/c"))
}

type mockedVaultLoader struct {
	data map[string]interface{}
}

var _ VaultLoader = &mockedVaultLoader{}

func (l *mockedVaultLoader) LoadSecretData(path string) (*vault.Secret, error) {
	data, ok := l.data[path]
	if !ok {
		return &vault.Secret{}, errors.New("path not found")
	}
	return &vault.Secret{
		Data: data.(map[string]interface{}),
	}, nil
}

func (s *ConfigTestSuite) TestGetSecretVault() {
	require := s.Require()
	NewVaultClient = func(cfg *vault.Config) (VaultLoader, error) {
		vaultRes := `{
			"secret/stakeboard": {
				"data": {
					"mnemonic": "abandon about"
				}
			}
		}`
		data := make(map[string]interface{})
		err := json.Unmarshal([]byte(vaultRes), &data)
		require.NoError(err)
		return &mockedVaultLoader{data: data}, nil
	}

	_, err := GetSecret("vault:wrong_args")
	require.ErrorContains(err, "vault secret has 2 comma separated arguments")
	_, err = GetSecret("vault:wrong_args,aaa,bbb")
	require.ErrorContains(err, "vault secret has 2 comma separated arguments")

	_, err = GetSecret("vault:url,aaa")
	require.ErrorContains(err, "malformed vault secret")

	_, err = GetSecret("vault:url,aaa/secret")
	require.EqualError(err, "path not found")

	secret, err := GetSecret("vault:https://vault.example:8200,secret/stakeboard/mnemonic")
	require.NoError(err)
	require.Equal("abandon about", secret)

	secret, err = GetSecret("vault:https://vault.example:8200,secret/stakeboard/none")
	require.NoError(err)
	require.Equal("", secret)
}

func (s *ConfigTestSuite) TestGetSecretFileTrimmed() {
	require := s.Require()
	path := writeFile(s, "secret", " MY SECRET \n")
	sec, err := GetSecret("file:" + path)
	require.NoError(err)
	require.Equal("MY SECRET", sec)
}

func (s *ConfigTestSuite) TestLogLevels() {
	require := s.Require()
	require.Equal(logrus.DebugLevel, ParseLogLevel("DEBUG"))
	require.Equal(logrus.WarnLevel, ParseLogLevel("warning"))
	require.Equal(logrus.InfoLevel, ParseLogLevel("nonsense"))

	require.Equal(logrus.WarnLevel, LevelFromVerbosity(0))
	require.Equal(logrus.InfoLevel, LevelFromVerbosity(1))
	require.Equal(logrus.DebugLevel, LevelFromVerbosity(2))
	require.Equal(logrus.TraceLevel, LevelFromVerbosity(5))

	ConfigureLogger("error")
	require.Equal(logrus.ErrorLevel, logrus.GetLevel())
	ConfigureLogger("info")
}
