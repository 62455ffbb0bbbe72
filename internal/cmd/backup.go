package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/fsx"
	"github.com/nguyengg/fsx/internal"
	"github.com/nguyengg/fsx/internal/config"
)

type Backup struct {
	Suffix    string         `long:"suffix" description:"the suffix of backup names; by default ~"`
	Hidden    bool           `long:"hidden" description:"make backups hidden by prefixing their names with a dot"`
	UTC       bool           `long:"utc" description:"render timestamps in UTC instead of local time"`
	Epoch     bool           `long:"epoch" description:"use Unix seconds as the timestamp"`
	Overwrite bool           `long:"overwrite" description:"replace an existing backup of the same name"`
	Dir       flags.Filename `short:"d" long:"dir" description:"put backups in this directory instead of next to their sources"`
	Args      struct {
		Files []flags.Filename `positional-arg-name:"file" description:"the files or directories to be backed up" required:"yes"`
	} `positional-args:"yes"`
}

func (c *Backup) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	cfg := config.ForBackup()
	if c.Suffix == "" {
		c.Suffix = cfg.Suffix
	}

	success := 0
	n := len(c.Args.Files)
	for i, file := range c.Args.Files {
		logger := internal.NewLogger(i, n, file)

		dst, err := fsx.Backup(string(file), func(opts *fsx.BackupOptions) {
			opts.Suffix = c.Suffix
			opts.Hidden = c.Hidden || cfg.Hidden
			opts.UTC = c.UTC || cfg.UTC
			opts.Epoch = c.Epoch
			opts.Overwrite = c.Overwrite
			opts.Dir = string(c.Dir)
		})
		if err != nil {
			logger.Printf(`backup "%s" error: %v`, file, err)
			continue
		}

		logger.Printf(`backed up to "%s"`, dst)
		success++
	}

	log.Printf("successfully backed up %d/%d files", success, n)
	return nil
}
