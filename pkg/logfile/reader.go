package logfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Scan parses every line of r. Blank lines are skipped. It stops at the first
// line that fails to parse; the error is a *RowError naming path and line.
func Scan(r io.Reader, path string, channels int, fn func(Row) bool) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		row, err := ParseRow(text, channels)
		if err != nil {
			var re *RowError
			if errors.As(err, &re) {
				re.Path, re.Line = path, line
			}
			return err
		}
		if !fn(row) {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

// ReadFile returns all rows of one weekly log.
func ReadFile(path string, channels int) ([]Row, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	var rows []Row
	err = Scan(fd, path, channels, func(r Row) bool {
		rows = append(rows, r)
		return true
	})
	return rows, err
}

// Rows streams the rows of paths in the given order as one sequence. Only the
// current file is held open. Iteration ends after the first error, which is
// yielded with a zero Row. Each range over the result starts from the first
// file again.
func Rows(paths []string, channels int) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for _, path := range paths {
			stopped, err := scanPath(path, channels, yield)
			if err != nil {
				yield(Row{}, err)
				return
			}
			if stopped {
				return
			}
		}
	}
}

func scanPath(path string, channels int, yield func(Row, error) bool) (stopped bool, err error) {
	fd, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer fd.Close()
	err = Scan(fd, path, channels, func(r Row) bool {
		if !yield(r, nil) {
			stopped = true
			return false
		}
		return true
	})
	return stopped, err
}
