package main

import (
	"context"
	"os"

	"todoboard/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
