package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/fsx"
	"github.com/nguyengg/fsx/archive"
	"github.com/nguyengg/fsx/internal"
	"github.com/nguyengg/fsx/internal/config"
	"github.com/nguyengg/fsx/util"
)

type Unarchive struct {
	Format  string         `short:"f" long:"format" description:"the archive format as an extension such as .tar.gz; by default determined from each file name"`
	Trusted bool           `long:"trusted" description:"skip the check that every member stays inside the target directory"`
	Dir     flags.Filename `short:"C" long:"directory" description:"extract into this directory instead of one derived from the archive"`
	Args    struct {
		Files []flags.Filename `positional-arg-name:"file" description:"the archives to be extracted" required:"yes"`
	} `positional-args:"yes"`

	logger *log.Logger
}

func (c *Unarchive) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	c.Trusted = c.Trusted || config.ForUnarchive().Trusted

	success := 0
	n := len(c.Args.Files)
	for i, file := range c.Args.Files {
		c.logger = internal.NewLogger(i, n, file)
		c.logger.Printf("start extracting")

		dir, err := c.unarchive(ctx, string(file))
		if err == nil {
			c.logger.Printf(`done extracting to "%s"`, dir)
			success++
			continue
		}

		if errors.Is(err, context.Canceled) {
			break
		}

		if errors.Is(err, fsx.ErrUnsafeArchive) {
			c.logger.Printf("refusing to extract: %v", err)
			continue
		}

		c.logger.Printf(`extract "%s" error: %v`, file, err)
	}

	log.Printf("successfully extracted %d/%d files", success, n)
	return nil
}

// unarchive picks the target directory and extracts name into it.
//
// Without an explicit directory, an archive whose members share a top-level directory that does not exist yet is
// extracted into the working directory. Otherwise, a new directory named after the archive stem is created.
func (c *Unarchive) unarchive(ctx context.Context, name string) (dir string, err error) {
	fi, err := os.Stat(name)
	if err != nil {
		return "", fmt.Errorf(`stat file "%s" error: %w`, name, err)
	}
	c.logger.Printf("archive size %s", humanize.IBytes(uint64(fi.Size())))

	withFormat := func(opts *fsx.UnarchiveOptions) {
		opts.Ext = c.Format
		opts.Trusted = c.Trusted
	}

	if c.Dir != "" {
		dir = string(c.Dir)
		return dir, fsx.Unarchive(ctx, name, dir, withFormat)
	}

	names, err := fsx.LsArchive(ctx, name, func(opts *fsx.LsArchiveOptions) {
		opts.Ext = c.Format
	})
	if err != nil {
		return "", err
	}

	if root, ok := internal.TopLevelDir(names); ok {
		if _, err = os.Lstat(root); errors.Is(err, os.ErrNotExist) {
			return root, fsx.Unarchive(ctx, name, ".", withFormat)
		}
	}

	stem, _ := archive.SplitExt(filepath.Base(name))
	if c.Format != "" {
		stem = strings.TrimSuffix(filepath.Base(name), c.Format)
	}
	if stem == "" {
		stem = "archive"
	}

	if dir, err = util.MkExclDir(".", stem, 0755); err != nil {
		return "", err
	}

	if err = fsx.Unarchive(ctx, name, dir, withFormat); err != nil {
		_ = fsx.Rm(dir)
		return "", err
	}

	return dir, nil
}
