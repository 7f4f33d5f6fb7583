// Package snapshot persists and restores point-in-time images of the
// order book. A snapshot carries the command sequence watermark it
// was taken at; everything after the watermark is recovered from the
// entry WAL.
package snapshot
