package feed

import (
	"fmt"
	"os"

	"github.com/cordialsys/stakeboard/store"
	"gopkg.in/yaml.v3"
)

type guardiansFile struct {
	Guardians []store.Guardian `yaml:"guardians"`
}

// LoadGuardiansFile reads the candidate list:
//
//	guardians:
//	  - name: Guardian One
//	    address: "0x..."
//	    website: https://example.com
//	    stake: "1000000000000000000000"
//	    voted: true
func LoadGuardiansFile(path string) ([]store.Guardian, error) {
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGuardians(bz)
}

func ParseGuardians(bz []byte) ([]store.Guardian, error) {
	var file guardiansFile
	if err := yaml.Unmarshal(bz, &file); err != nil {
		return nil, fmt.Errorf("invalid guardians file: %v", err)
	}
	for i, g := range file.Guardians {
		if !g.Address.Valid() {
			return nil, fmt.Errorf("guardian %d (%s) has an invalid address %q", i, g.Name, g.Address)
		}
		if g.Stake.Sign() < 0 {
			return nil, fmt.Errorf("guardian %d (%s) has a negative stake", i, g.Name)
		}
	}
	return file.Guardians, nil
}
