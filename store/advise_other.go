//go:build !linux

package store

import "os"

func adviseRandom(*os.File) error { return nil }
