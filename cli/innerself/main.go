package main

import (
	"os"

	innerselfcmder "github.com/papercomputeco/innerself/cmd/innerself"
)

func main() {
	cmd := innerselfcmder.NewInnerSelfCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
