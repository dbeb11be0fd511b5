package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/term"

	"mlsscout/internal/output"
	"mlsscout/internal/types"
)

// browseLines renders one selectable line per accepted listing.
func browseLines(accepted []types.Candidate, siteBaseURL string) []string {
	lines := make([]string, 0, len(accepted))
	for _, c := range accepted {
		lines = append(lines, fmt.Sprintf("%-12s | %s", c.MLSNumber, output.DetailURL(siteBaseURL, c.DetailURLPath)))
	}
	return lines
}

// showListing prints the full search record of one listing.
func showListing(w io.Writer, c types.Candidate) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, c.Raw, "", "    "); err != nil {
		fmt.Fprintf(w, "%s (unreadable record: %v)\n", c.MLSNumber, err)
		return
	}
	fmt.Fprintln(w, buf.String())
}

// browse lets the user move through accepted listings with arrow keys and
// press Enter to view the full record. It draws on stderr so stdout keeps only
// the results.
func browse(accepted []types.Candidate, siteBaseURL string) {
	if len(accepted) == 0 {
		return
	}
	out := os.Stderr
	lines := browseLines(accepted, siteBaseURL)

	if runtime.GOOS == "windows" {
		enableVT()
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintln(out, "(interactive selection not supported on this terminal)")
		return
	}
	defer term.Restore(fd, oldState)

	reader := bufio.NewReader(os.Stdin)
	selected := 0

	redraw := func() {
		// Clear screen (ANSI reset to top + clear screen)
		fmt.Fprint(out, "\033[H\033[2J")
		for i, l := range lines {
			prefix := "  "
			if i == selected {
				prefix = "> "
			}
			fmt.Fprint(out, prefix+l+"\r\n")
		}
		fmt.Fprint(out, "(↑/↓ to navigate, Enter to view details, Esc to quit)\r\n")
	}

	// details leaves raw mode while the record is shown.
	details := func() bool {
		term.Restore(fd, oldState)
		fmt.Fprintln(out)
		showListing(out, accepted[selected])

		fmt.Fprint(out, "\n(press Enter to return)")
		_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')

		oldState, err = term.MakeRaw(fd)
		if err != nil {
			return false
		}
		reader = bufio.NewReader(os.Stdin)
		redraw()
		return true
	}

	up := func() {
		if selected > 0 {
			selected--
			redraw()
		}
	}
	down := func() {
		if selected < len(lines)-1 {
			selected++
			redraw()
		}
	}

	redraw()

	for {
		b1, err := reader.ReadByte()
		if err != nil {
			return
		}
		// Windows console arrow sequences (0 or 224, then code)
		if b1 == 0 || b1 == 224 {
			b2, _ := reader.ReadByte()
			switch b2 {
			case 72:
				up()
			case 80:
				down()
			case 13:
				if !details() {
					return
				}
			}
			continue
		}

		switch b1 {
		case 27: // ESC or ANSI sequence
			if reader.Buffered() == 0 {
				fmt.Fprint(out, "\r\n")
				return
			}
			b2, _ := reader.ReadByte()
			if b2 != '[' || reader.Buffered() == 0 {
				continue
			}
			b3, _ := reader.ReadByte()
			switch b3 {
			case 'A':
				up()
			case 'B':
				down()
			}
		case '\r', '\n':
			if !details() {
				return
			}
		case 3: // Ctrl-C
			fmt.Fprint(out, "\r\n")
			return
		}
	}
}
