package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"minechain/block"
	"minechain/chain"
	"minechain/config"
	"minechain/events"
	"minechain/exception"
	"minechain/jsonrpc"
	"minechain/logx"
	"minechain/monitoring"
	"minechain/utils"
)

var (
	genesisPath string
	minerPath   string
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run a chain node with its JSON-RPC and metrics endpoints",
	RunE:  runNode,
}

func init() {
	nodeCmd.Flags().StringVar(&genesisPath, "genesis", "config/genesis.yml", "path to the genesis YAML file")
	nodeCmd.Flags().StringVar(&minerPath, "miner", "config/miner.ini", "path to the miner INI file")
	rootCmd.AddCommand(nodeCmd)
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGenesisConfig(genesisPath)
	if err != nil {
		return fmt.Errorf("load genesis config: %w", err)
	}
	difficulty, err := utils.ParseDifficulty(cfg.Difficulty)
	if err != nil {
		return fmt.Errorf("genesis difficulty: %w", err)
	}

	minerCfg, err := config.LoadMinerConfig(minerPath)
	if err != nil {
		logx.Warn("NODE", "miner config not loaded, defaulting to cpu solver: ", err)
		minerCfg = &config.MinerConfig{Solver: "cpu"}
	}

	var solver block.Solver
	switch minerCfg.Solver {
	case "remote":
		if minerCfg.WorkerAddr == "" {
			return fmt.Errorf("miner config: remote solver requires worker_addr")
		}
		solver = jsonrpc.NewRemoteSolver(minerCfg.WorkerAddr)
		logx.Info("NODE", "using remote solver at ", minerCfg.WorkerAddr)
	default:
		solver = block.CPUSolver{}
	}

	bus := events.NewEventBus()
	c, err := chain.NewChain(difficulty, solver, bus)
	if err != nil {
		return err
	}

	_, eventCh := bus.Subscribe()
	exception.SafeGo("event-log", func() {
		for ev := range eventCh {
			logx.Info("EVENT", string(ev.Type()), " | entry_id=", ev.EntryID())
		}
	})

	monitoring.SetNodeUp()
	if cfg.SelfNode.MetricsAddr != "" {
		monitoring.ServeMetrics(cfg.SelfNode.MetricsAddr)
	}

	srv := jsonrpc.NewServer(cfg.SelfNode.RPCAddr, c)
	srv.Start()
	logx.Info("NODE", "node up | rpc=", cfg.SelfNode.RPCAddr, " difficulty=", difficulty.Dec())

	select {}
}
