// Package cache stores computed payloads on disk, addressed by the SHA-256 of
// a caller-chosen key.
//
// Entries live as flat files named by the lowercase hex digest of the key.
// A background sweep deletes entries older than the configured maximum age,
// measured from the file's creation time. The cache is safe for concurrent
// use, including reads racing with the sweep: an entry that vanishes between
// an existence check and a read is reported as a miss.
package cache
