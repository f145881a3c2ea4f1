package main

import (
	"os"

	"github.com/brojonat/lasttx/service/config"
	"github.com/brojonat/lasttx/service/solana"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args, dependencies{
		stdout: os.Stdout,
		stderr: os.Stderr,
		env:    config.EnvSource{},
		newRPC: func(cfg *config.Config) solana.RPCClient {
			return solana.NewRPCClient(cfg.RPCURL, cfg.Timeout)
		},
	}))
}
