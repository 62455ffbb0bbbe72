// Package fsx provides file-system operations with safer defaults.
//
// Files and directories are replaced atomically by staging them under a hidden temporary sibling and renaming into
// place (CreateAtomicFile, CreateAtomicDir). Archives are created through that same mechanism so that a failed Archive
// never leaves a partial file behind, and Unarchive verifies that no member escapes the target directory before
// writing a single byte.
package fsx
