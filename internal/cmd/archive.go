package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/fsx"
	"github.com/nguyengg/fsx/archive"
	"github.com/nguyengg/fsx/internal"
	"github.com/nguyengg/fsx/internal/config"
	"github.com/nguyengg/fsx/walk"
	"golang.org/x/time/rate"
)

type Archive struct {
	Output   flags.Filename    `short:"o" long:"output" description:"the archive file to create" required:"yes"`
	Format   string            `short:"f" long:"format" description:"the archive format as an extension such as .tar.gz; by default determined from the output file name"`
	Root     flags.Filename    `long:"root" description:"member names are relative to this directory; by default the parent of the longest common path of all sources"`
	Rename   string            `long:"rename" description:"the member name of the only source"`
	Repath   map[string]string `long:"repath" key-value-delimiter:"=" description:"give a source an explicit member name, e.g. --repath path/to/src=name"`
	SkipSync bool              `long:"skip-sync" description:"skip fsync of the archive file"`
	Args     struct {
		Files []flags.Filename `positional-arg-name:"file" description:"the files or directories to be archived" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Archive) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	cfg := config.ForArchive()
	name := string(c.Output)
	if c.Format == "" {
		if _, ext := archive.SplitExt(name); ext == "" {
			c.Format = cfg.Format
		}
	}

	paths := make([]string, len(c.Args.Files))
	for i, file := range c.Args.Files {
		paths[i] = string(file)
	}

	logger := internal.NewLogger(0, 1, c.Output)
	logger.Printf("start archiving %d sources", len(paths))

	size, count, err := sourceSize(ctx, paths)
	if err != nil {
		return err
	}

	bar := internal.DefaultBytes(size, "archiving")
	defer bar.Close()

	added := 0
	sometimes := rate.Sometimes{Interval: 5 * time.Second}

	if err = fsx.Archive(ctx, name, fsx.Paths(paths...), func(opts *fsx.ArchiveOptions) {
		opts.Ext = c.Format
		opts.Root = string(c.Root)
		opts.Rename = c.Rename
		opts.Repath = c.Repath
		opts.SkipSync = c.SkipSync || cfg.SkipSync
		opts.ProgressReporter = func(src, member string) {
			added++
			if fi, err := os.Lstat(src); err == nil && fi.Mode().IsRegular() {
				_ = bar.Add64(fi.Size())
			}

			sometimes.Do(func() {
				logger.Printf(`added %d/%d members, last "%s"`, added, count, member)
			})
		}
	}); err != nil {
		logger.Printf("archive error: %v", err)
		return err
	}

	_ = bar.Finish()

	if fi, err := os.Stat(name); err == nil {
		logger.Printf("done archiving %d members (%s)", added, humanize.IBytes(uint64(fi.Size())))
	}

	log.Printf("successfully archived %d/%d members", added, count)
	return nil
}

// sourceSize returns the total size of regular files and the number of entries that archiving paths will add.
func sourceSize(ctx context.Context, paths []string) (size int64, count int, err error) {
	add := func(path string) error {
		fi, err := os.Lstat(path)
		if err != nil {
			return err
		}

		count++
		if fi.Mode().IsRegular() {
			size += fi.Size()
		}
		return nil
	}

	for _, p := range paths {
		if err = ctx.Err(); err != nil {
			return
		}

		if err = add(p); err != nil {
			return
		}

		fi, _ := os.Lstat(p)
		if !fi.IsDir() {
			continue
		}

		for path, err := range walk.Walk(p).All() {
			if err != nil {
				return size, count, err
			}

			if err = add(path); err != nil {
				return size, count, err
			}
		}
	}

	return
}
