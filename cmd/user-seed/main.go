// user-seed fills the users table with fake users.
//
//	go run ./cmd/user-seed --config=config/local.yaml -n 25
package main

import (
	"os"

	"github.com/andrestovio/module10-is601/internal/cli"
)

func main() {
	if err := cli.NewSeedCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
