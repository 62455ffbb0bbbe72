package config

// ArchiveConfig contains defaults for the archive command.
type ArchiveConfig struct {
	// Format is the extension used when the output file name has no recognised extension, e.g. ".tar.gz".
	Format   string
	SkipSync bool
}

// ForArchive returns configuration for the archive command from the [archive] section.
func (l *Loader) ForArchive() (c ArchiveConfig) {
	sec, err := l.cfg.GetSection("archive")
	if err != nil {
		return c
	}

	c.Format = sec.Key("format").String()
	c.SkipSync = sec.Key("skip-sync").MustBool(false)
	return
}

// ForArchive calls Loader.ForArchive on the DefaultLoader instance.
func ForArchive() ArchiveConfig {
	return DefaultLoader.ForArchive()
}

// UnarchiveConfig contains defaults for the unarchive command.
type UnarchiveConfig struct {
	Trusted bool
}

// ForUnarchive returns configuration for the unarchive command from the [unarchive] section.
func (l *Loader) ForUnarchive() (c UnarchiveConfig) {
	sec, err := l.cfg.GetSection("unarchive")
	if err != nil {
		return c
	}

	c.Trusted = sec.Key("trusted").MustBool(false)
	return
}

// ForUnarchive calls Loader.ForUnarchive on the DefaultLoader instance.
func ForUnarchive() UnarchiveConfig {
	return DefaultLoader.ForUnarchive()
}

// BackupConfig contains defaults for the backup command.
type BackupConfig struct {
	Suffix string
	Hidden bool
	UTC    bool
}

// ForBackup returns configuration for the backup command from the [backup] section.
//
// Suffix defaults to "~" when the section or key is absent.
func (l *Loader) ForBackup() (c BackupConfig) {
	c.Suffix = "~"

	sec, err := l.cfg.GetSection("backup")
	if err != nil {
		return c
	}

	c.Suffix = sec.Key("suffix").MustString("~")
	c.Hidden = sec.Key("hidden").MustBool(false)
	c.UTC = sec.Key("utc").MustBool(false)
	return
}

// ForBackup calls Loader.ForBackup on the DefaultLoader instance.
func ForBackup() BackupConfig {
	return DefaultLoader.ForBackup()
}
