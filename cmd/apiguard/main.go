package main

import (
	"os"

	"github.com/dshills/apiguard/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
