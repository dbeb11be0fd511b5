//go:build !windows

package main

// enableVT is a no-op: ANSI terminals need no setup.
func enableVT() {}
