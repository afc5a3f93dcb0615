// Package util contains the errors, the logger and the output helpers shared by
// every other package.
package util

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml"
)

// Write creates the output file of a calculation. It writes the date, encodes
// the structure (usually the job parameters) in a TOML format and writes it.
// This method returns the file for further writing. It must be closed at the
// end of the calculation.
func Write(path string, structure interface{}) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(f, "# Date: %v\n", time.Now().Format("2006-01-02 15:04:05 -0700 MST"))

	b, err := toml.Marshal(structure)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("Marshal: %w", err)
	}

	// The header is commented so that the columns stay readable by numpy or
	// gnuplot.
	for _, line := range splitLines(b) {
		f.WriteString("# ")
		f.Write(line)
		f.Write([]byte{'\n'})
	}

	f.Write([]byte{'\n'})
	return f, nil
}

func splitLines(b []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, c := range b {
		if c == '\n' {
			if i > start {
				lines = append(lines, b[start:i])
			}
			start = i + 1
		}
	}
	if start < len(b) {
		lines = append(lines, b[start:])
	}
	return lines
}
