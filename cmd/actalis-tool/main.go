package main

import (
	"os"

	"github.com/ethereum/go-ethereum/log"
)

var logger = log.New("package", "actalis/cmd/actalis-tool")

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
