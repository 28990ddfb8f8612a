//go:build !unix

package fileutil

// Without a portable EXDEV signal the rename error is returned as-is.
func isEXDEV(error) bool { return false }
