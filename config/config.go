package config

import (
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"minechain/logx"
)

// LoadGenesisConfig reads and parses the genesis.yml file
func LoadGenesisConfig(path string) (*GenesisConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		logx.Error("CONFIG", "Failed to open genesis file: ", err)
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		logx.Error("CONFIG", "Failed to decode genesis YAML: ", err)
		return nil, err
	}
	logx.Info("CONFIG", "Loaded genesis config | rpc_addr=", cfgFile.Config.SelfNode.RPCAddr, " difficulty=", cfgFile.Config.Difficulty)
	return &cfgFile.Config, nil
}

type MinerConfig struct {
	Solver     string `ini:"solver"`      // "cpu" or "remote"
	WorkerAddr string `ini:"worker_addr"` // remote solver endpoint
}

// LoadMinerConfig reads miner settings from an .ini file
func LoadMinerConfig(path string) (*MinerConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	minerSection := cfg.Section("miner")
	minerCfg := &MinerConfig{Solver: "cpu"}
	err = minerSection.MapTo(minerCfg)
	if err != nil {
		return nil, err
	}
	return minerCfg, nil
}
