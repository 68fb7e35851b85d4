package config

// NodeConfig represents a node's listen surface
type NodeConfig struct {
	RPCAddr     string `yaml:"rpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// GenesisConfig holds the configuration from genesis.yml
type GenesisConfig struct {
	SelfNode   NodeConfig `yaml:"self_node"`
	Difficulty string     `yaml:"difficulty"`
}

// ConfigFile is the top-level structure for genesis.yml
type ConfigFile struct {
	Config GenesisConfig `yaml:"config"`
}
