// Package output renders accepted listings: either a file of indented JSON
// records or a single line of detail-page URLs.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"mlsscout/internal/types"
)

// WriteJSON writes each candidate's raw search record, indented by four
// spaces and followed by a newline.
func WriteJSON(w io.Writer, accepted []types.Candidate) error {
	for _, c := range accepted {
		var buf bytes.Buffer
		if err := json.Indent(&buf, c.Raw, "", "    "); err != nil {
			return fmt.Errorf("format %s: %w", c.MLSNumber, err)
		}
		buf.WriteByte('\n')
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSONFile creates (or truncates) path and writes the records to it.
func WriteJSONFile(path string, accepted []types.Candidate) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, accepted); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteURLs prints every detail URL followed by a space, then a newline.
func WriteURLs(w io.Writer, siteBaseURL string, accepted []types.Candidate) error {
	var sb strings.Builder
	for _, c := range accepted {
		sb.WriteString(DetailURL(siteBaseURL, c.DetailURLPath))
		sb.WriteByte(' ')
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// DetailURL joins a site-relative detail path to the site root. Absolute URLs
// and an empty base are returned as-is.
func DetailURL(siteBaseURL, path string) string {
	if siteBaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(siteBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
