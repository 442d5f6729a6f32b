package persistence

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// Report lists every stored run followed by its points, one
// "delay re im solutions" line per point.
func (db *DB) Report(w io.Writer) error {
	runs, err := db.Runs()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	for _, run := range runs {
		points, err := db.Points(run.ID)
		if err != nil {
			return fmt.Errorf("points of run %s: %w", run.ID, err)
		}
		if _, err := fmt.Fprintf(w, "%s %s %s, %s points\n", run.ID, run.Model, run.Started, humanize.Comma(int64(len(points)))); err != nil {
			return err
		}
		for _, p := range points {
			if _, err := fmt.Fprintf(w, "\t%g\t%g\t%g\t%d\n", p.Delay, p.Re, p.Im, p.Solutions); err != nil {
				return err
			}
		}
	}
	return nil
}
