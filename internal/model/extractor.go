package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/wildstyl3r/sfi/internal/config"
	"github.com/wildstyl3r/sfi/internal/plot"
	"github.com/wildstyl3r/sfi/internal/utils"
)

type DataExtractor struct {
	model  *Model
	points []Point
}

func NewDataExtractor(model *Model, points []Point) *DataExtractor {
	return &DataExtractor{model: model, points: points}
}

// Save writes every enabled output. It keeps going after a failed output
// and reports all failures together.
func (de *DataExtractor) Save(df DataFlags) error {
	var errs []error
	outputPath := df.GetOutputPath()
	if df.enabled(df.observable) {
		if err := de.printer(outputPath, df.observable.fileSuffix).WriteTable(de.plotPoints()); err != nil {
			errs = append(errs, fmt.Errorf("unable to save observable: %w", err))
		}
	}
	for name, output := range df.sequentials {
		if df.enabled(output.DataItem) {
			if err := de.saveSequential(outputPath, output); err != nil {
				errs = append(errs, fmt.Errorf("unable to save %s: %w", name, err))
			}
		}
	}
	if df.enabled(df.chart) {
		if err := de.printer(outputPath, df.chart.fileSuffix).WriteChart(de.plotPoints()); err != nil {
			errs = append(errs, err)
		}
	}
	if df.enabled(df.equations) {
		if err := de.saveEquations(outputPath, df.equations.fileSuffix); err != nil {
			errs = append(errs, fmt.Errorf("unable to save equations: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (de *DataExtractor) output(v float64, unit []config.UnitElement) string {
	return strconv.FormatFloat(config.Atomic(v, unit, de.model.Parameters.OutputUnits(), false), 'g', -1, 64)
}

func (de *DataExtractor) saveSequential(outputPath string, output SequentialDataItem) error {
	file, err := utils.OpenFile(de.model.Parameters.MakeDir, outputPath, output.fileSuffix, de.model.Name, "csv")
	if err != nil {
		return err
	}
	defer file.Close()

	rows := [][]string{output.columnNames}
	args, values := output.values(de)
	for i := range args {
		row := []string{de.output(args[i], output.xUnit)}
		for _, v := range values[i] {
			row = append(row, de.output(v, output.yUnit))
		}
		rows = append(rows, row)
	}
	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	utils.Discard(de.model.logger).Info("saved", "file", file.Name())
	return file.Close()
}

// printer lays the observable out as <outputPath>/<model>_<suffix> with
// delays in output units.
func (de *DataExtractor) printer(outputPath, suffix string) *plot.Printer {
	return &plot.Printer{
		Name:    de.model.Name,
		Dir:     outputPath,
		Subdir:  suffix,
		MakeDir: de.model.Parameters.MakeDir,
		XLabel:  "T_d",
		Scale: func(td float64) float64 {
			return config.Atomic(td, delayUnit, de.model.Parameters.OutputUnits(), false)
		},
		Logger: de.model.logger,
	}
}

func (de *DataExtractor) plotPoints() []plot.Point {
	points := make([]plot.Point, len(de.points))
	for i, p := range de.points {
		points[i] = plot.Point{X: p.Delay, Value: p.Value}
	}
	return points
}

func (de *DataExtractor) saveEquations(outputPath, suffix string) error {
	names, err := de.model.Cache.List()
	if err != nil {
		return err
	}
	file, err := utils.OpenFile(de.model.Parameters.MakeDir, outputPath, suffix, de.model.Name, "txt")
	if err != nil {
		return err
	}
	defer file.Close()
	for _, name := range names {
		text, err := de.model.Cache.Text(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(file, "%s = %s\n", name, text); err != nil {
			return err
		}
	}
	return file.Close()
}
