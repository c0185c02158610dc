package code

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadCSVBinding is the namespace name of the CSV loader.
const LoadCSVBinding = "LoadCSV"

// loadCSV returns the loader bound into every namespace. Columns are keyed by
// header; cells that do not parse as numbers become NaN so the integrity
// checks see them. Each successful load is reported to the context.
func (e *Executor) loadCSV() func(path string) (map[string][]float64, error) {
	return func(path string) (map[string][]float64, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		cols, err := readColumns(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		e.cfg.Context.NotifyFileLoaded(path)
		return cols, nil
	}
}

func readColumns(r io.Reader) (map[string][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, err
	}
	cols := make(map[string][]float64, len(header))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, name := range header {
			v := math.NaN()
			if i < len(rec) {
				if x, perr := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64); perr == nil {
					v = x
				}
			}
			cols[name] = append(cols[name], v)
		}
	}
	return cols, nil
}
