//go:build windows

package main

// Windows does not support SIGUSR1 signal as linux does
// to get dump of running goroutines to file: goroutines.prof
// so in windows we do nothing here

// This is a placeholder function to maintain compatibility with other platforms.
// SIGINT still cancels a running decode on all platforms.
func setupSigusr1Dump() {}
