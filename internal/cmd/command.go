package cmd

import (
	"github.com/jessevdk/go-flags"
)

type Fsx struct {
	Archive   Archive   `command:"archive" alias:"a" description:"create an archive from files and directories"`
	Unarchive Unarchive `command:"unarchive" alias:"x" description:"extract archives"`
	Ls        Ls        `command:"ls" description:"list the members of archives"`
	Backup    Backup    `command:"backup" alias:"bak" description:"copy files or directories to timestamped backups"`
}

func NewParser() (*flags.Parser, error) {
	opts := &Fsx{}

	p := flags.NewNamedParser("fsx", flags.Default)
	if _, err := p.AddGroup("Global Options", "", opts); err != nil {
		return nil, err
	}

	return p, nil
}
