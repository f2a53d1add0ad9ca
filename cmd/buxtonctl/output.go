// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// printKeys writes a key listing to stdout. Piped output gets one key
// per line so scripts can consume it; interactive output is packed
// into columns sized to the terminal.
func printKeys(keys []string) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		for _, key := range keys {
			fmt.Println(key)
		}
		return
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		width = 80
	}
	for _, line := range columnate(keys, width) {
		fmt.Println(line)
	}
}

// columnate packs keys into rows of equal-width columns fitting the
// given terminal width. Keys keep their order, filling row-major.
func columnate(keys []string, width int) []string {
	if len(keys) == 0 {
		return nil
	}

	const gap = 2
	longest := 0
	for _, key := range keys {
		if len(key) > longest {
			longest = len(key)
		}
	}
	columns := (width + gap) / (longest + gap)
	if columns < 1 {
		columns = 1
	}

	var lines []string
	for start := 0; start < len(keys); start += columns {
		end := start + columns
		if end > len(keys) {
			end = len(keys)
		}
		line := ""
		for i, key := range keys[start:end] {
			if i == len(keys[start:end])-1 {
				line += key
			} else {
				line += fmt.Sprintf("%-*s", longest+gap, key)
			}
		}
		lines = append(lines, line)
	}
	return lines
}
