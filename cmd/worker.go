package cmd

import (
	"github.com/spf13/cobra"

	"minechain/jsonrpc"
	"minechain/logx"
	"minechain/monitoring"
)

var workerAddr string

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a standalone pow.solve hash-search worker",
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().StringVar(&workerAddr, "addr", ":9870", "listen address for the worker RPC endpoint")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	monitoring.SetNodeUp()
	srv := jsonrpc.NewServer(workerAddr, nil)
	srv.Start()
	logx.Info("WORKER", "hash-search worker up | addr=", workerAddr)

	select {}
}
