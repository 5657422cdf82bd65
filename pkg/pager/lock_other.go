//go:build !unix

package pager

import "os"

// Initialization of a shared pool file is not serialized between processes
// on this platform; open it from one process before starting the others.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
