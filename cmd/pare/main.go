package main

import (
	"os"

	"github.com/parecli/pare/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
