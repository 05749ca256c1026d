package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/vulnforge/internal/cli"
	"github.com/ppiankov/vulnforge/internal/config"
	"github.com/ppiankov/vulnforge/internal/extract"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var verr *config.ValidationError
		if errors.Is(err, extract.ErrNotPublicRepo) || errors.As(err, &verr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
