package model

import (
	"flag"

	"github.com/wildstyl3r/sfi/internal/config"
)

type DataItem struct {
	saveFlag   *bool
	fileSuffix string
}

type SequentialDataItem struct {
	DataItem
	columnNames []string
	values      func(*DataExtractor) (args []float64, values [][]float64)
	xUnit       []config.UnitElement
	yUnit       []config.UnitElement
}

type DataFlags struct {
	all         *bool
	observable  DataItem
	chart       DataItem
	equations   DataItem
	sequentials map[string]SequentialDataItem
	outputPath  string
}

var delayUnit = config.ValueUnits("Td")

func NewDataFlags(fs *flag.FlagSet) DataFlags {
	return DataFlags{
		all: fs.Bool("all", false, "save every available output"),
		observable: DataItem{
			saveFlag:   fs.Bool("obs", true, "save observable"),
			fileSuffix: "obs",
		},
		chart: DataItem{
			saveFlag:   fs.Bool("png", false, "save observable chart"),
			fileSuffix: "obs",
		},
		equations: DataItem{
			saveFlag:   fs.Bool("eq", false, "save canonical equations"),
			fileSuffix: "eq",
		},
		sequentials: map[string]SequentialDataItem{
			"Saddle points": {
				DataItem: DataItem{
					saveFlag:   fs.Bool("sol", false, "save saddle points"),
					fileSuffix: "sol",
				},
				columnNames: []string{"T_d", "re t1", "im t1", "re t2", "im t2"},
				values: func(de *DataExtractor) (args []float64, values [][]float64) {
					for _, p := range de.points {
						for _, s := range p.Solutions {
							row := make([]float64, 0, 2*len(s))
							for _, z := range s {
								row = append(row, real(z), imag(z))
							}
							args = append(args, p.Delay)
							values = append(values, row)
						}
					}
					return
				},
				xUnit: delayUnit,
				yUnit: delayUnit,
			},
		},
	}
}

func (df *DataFlags) SetOutputPath(path string) {
	df.outputPath = path
}

func (df *DataFlags) GetOutputPath() string {
	return df.outputPath
}

func (df *DataFlags) enabled(item DataItem) bool {
	return *item.saveFlag || *df.all
}
