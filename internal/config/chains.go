package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChainPreset is one named chain entry from the chains YAML file.
type ChainPreset struct {
	Name    string `yaml:"name"`
	ChainID uint64 `yaml:"chain_id"`
	RPCURL  string `yaml:"rpc_url"`
	ScanURL string `yaml:"scan_url"`
	APIKey  string `yaml:"-"`
}

type chainsFile struct {
	// APIKey here is the persisted key; WARPSCAN_API_KEY wins over it.
	APIKey string        `yaml:"api_key"`
	Chains []ChainPreset `yaml:"chains"`
}

// LoadChainPreset reads the chains YAML file and returns the preset with the
// given name.
func LoadChainPreset(path, name string) (ChainPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChainPreset{}, fmt.Errorf("read chains file: %w", err)
	}

	var file chainsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ChainPreset{}, fmt.Errorf("parse chains file: %w", err)
	}

	for _, c := range file.Chains {
		if c.Name == name {
			c.APIKey = file.APIKey
			return c, nil
		}
	}
	return ChainPreset{}, fmt.Errorf("chain %q not found in %s", name, path)
}
