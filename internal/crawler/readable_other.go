//go:build !unix

package crawler

import "os"

// readable opens p once. Callers only pass regular files and directories.
func readable(p string) bool {
	f, err := os.Open(p)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
