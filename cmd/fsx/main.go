package main

import (
	"context"
	"errors"
	"log"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/fsx/internal/cmd"
	"github.com/nguyengg/fsx/internal/config"
)

func main() {
	if name, err := config.Load(context.Background()); err != nil {
		log.Printf(`load config "%s" error: %v`, name, err)
	}

	p, err := cmd.NewParser()
	if err != nil {
		log.Fatal(err)
	}

	_, err = p.Parse()
	exit(err)
}

// exitCode is 0 on success or help, 2 for usage errors, and 1 for anything else.
func exitCode(err error) int {
	var flagsErr *flags.Error
	switch {
	case err == nil || flags.WroteHelp(err):
		return 0
	case errors.As(err, &flagsErr):
		return 2
	default:
		return 1
	}
}
