package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/fsx"
	"github.com/nguyengg/fsx/internal"
)

type Ls struct {
	Format string `short:"f" long:"format" description:"the archive format as an extension such as .tar.gz; by default determined from each file name"`
	Args   struct {
		Files []flags.Filename `positional-arg-name:"file" description:"the archives to be listed" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Ls) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	success := 0
	n := len(c.Args.Files)
	for i, file := range c.Args.Files {
		logger := internal.NewLogger(i, n, file)

		names, err := fsx.LsArchive(ctx, string(file), func(opts *fsx.LsArchiveOptions) {
			opts.Ext = c.Format
		})
		if err == nil {
			for _, name := range names {
				if n > 1 {
					_, _ = fmt.Fprintf(os.Stdout, "%s: %s\n", file, name)
				} else {
					_, _ = fmt.Fprintln(os.Stdout, name)
				}
			}

			logger.Printf("listed %d members", len(names))
			success++
			continue
		}

		if errors.Is(err, context.Canceled) {
			break
		}

		logger.Printf(`list "%s" error: %v`, file, err)
	}

	log.Printf("successfully listed %d/%d files", success, n)
	return nil
}
