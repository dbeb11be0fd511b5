package boundary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandOracle asks an external program. The program is invoked as
// `argv... <lat> <lon>` and must print "true" or "false" on stdout.
type CommandOracle struct {
	argv []string
	dir  string
}

// NewCommandOracle returns an oracle running argv from dir (empty means the
// current directory).
func NewCommandOracle(argv []string, dir string) (*CommandOracle, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("command oracle: empty command")
	}
	return &CommandOracle{argv: argv, dir: dir}, nil
}

// Contains implements Oracle.
func (c *CommandOracle) Contains(ctx context.Context, lat, lon float64, name string) (bool, error) {
	args := append(append([]string{}, c.argv[1:]...),
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
	)
	cmd := exec.CommandContext(ctx, c.argv[0], args...)
	cmd.Dir = c.dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("boundary %s: run %s: %w (%s)", name, c.argv[0], err, strings.TrimSpace(stderr.String()))
	}

	switch answer := strings.TrimSpace(string(out)); answer {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("boundary %s: unexpected output %q", name, answer)
	}
}
