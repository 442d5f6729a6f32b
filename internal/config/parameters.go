package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/wildstyl3r/lxgata"

	"github.com/wildstyl3r/sfi/internal/formulas"
	"github.com/wildstyl3r/sfi/internal/utils"
)

var (
	ErrNoModels  = errors.New("no models provided")
	ErrAmbiguous = errors.New("conflicting fields")
	ErrMissing   = errors.New("required fields not found")
	ErrUnitClash = errors.New("unit conflict")
	ErrBadValue  = errors.New("invalid value")
)

// DefaultLogFile is created in OutputDir when no LogFile is configured.
const DefaultLogFile = "sfi.log"

type Config struct {
	OutputDir  string
	FormulaDir string
	LogFile    string
	LogLevel   string
	Database   string
	Models     map[string]ModelParameters
	ModelParameters

	InputUnits  []string
	OutputUnits []string
}

func LoadConfig(configFileName string) (Config, toml.MetaData, error) {
	var config Config
	meta, err := toml.DecodeFile(strings.TrimSuffix(configFileName, ".toml")+".toml", &config)
	if err != nil {
		return config, meta, err
	}
	return config, meta, config.checkGlobal()
}

// DecodeConfig reads a configuration from toml text.
func DecodeConfig(data string) (Config, toml.MetaData, error) {
	var config Config
	meta, err := toml.Decode(data, &config)
	if err != nil {
		return config, meta, err
	}
	return config, meta, config.checkGlobal()
}

func (config *Config) checkGlobal() error {
	var unitsConflict []string
	config.InputUnits, unitsConflict = checkUnits(config.InputUnits)
	if len(unitsConflict) > 0 {
		return fmt.Errorf("%w in input units: %v", ErrUnitClash, unitsConflict)
	}
	if len(config.OutputUnits) == 0 {
		config.OutputUnits = config.InputUnits
	}
	config.OutputUnits, unitsConflict = checkUnits(config.OutputUnits)
	if len(unitsConflict) > 0 {
		return fmt.Errorf("%w in output units: %v", ErrUnitClash, unitsConflict)
	}
	if len(config.Models) == 0 {
		return ErrNoModels
	}
	if config.FormulaDir == "" {
		config.FormulaDir = "formulas"
	}
	if config.LogFile == "" {
		config.LogFile = filepath.Join(config.OutputDir, DefaultLogFile)
	}
	return nil
}

type ModelParameters struct {
	Td     float64 // fixed delay; excludes the sweep
	F      float64 // field amplitude
	Omega1 float64
	Omega2 float64
	Eta1   float64
	Eta2   float64
	N1     float64
	N2     float64
	F0     float64
	F0Imag float64

	Ip            float64
	CrossSections string // LXCat file; the ionization threshold becomes Ip

	P      float64
	PTheta float64

	SweepFrom   float64
	SweepTo     float64
	SweepPoints int

	LeftBorder  float64
	RightBorder float64
	Frequency   int
	Precision   float64
	Workers     int

	Tolerance        float64
	MaxIterations    int
	QuadraturePoints int

	Envelope string
	Stages   []string
	Combiner string
	Reducer  string
	MakeDir  bool

	_outputUnits []string
	_sweep       bool
}

func (p *ModelParameters) OutputUnits() []string {
	return p._outputUnits
}

// Delays lists the delays of the sweep in atomic units.
func (p *ModelParameters) Delays() []float64 {
	if !p._sweep {
		return []float64{p.Td}
	}
	return utils.Linspace(p.SweepFrom, p.SweepTo, p.SweepPoints)
}

// Parameter is the model parameter at delay td.
func (p *ModelParameters) Parameter(td float64) formulas.Parameter {
	return formulas.Parameter{
		Td:     td,
		F:      p.F,
		Omega1: p.Omega1,
		Omega2: p.Omega2,
		Eta1:   p.Eta1,
		Eta2:   p.Eta2,
		N1:     p.N1,
		N2:     p.N2,
		F0:     complex(p.F0, p.F0Imag),
		Ip:     p.Ip,
		P:      p.P,
		PTheta: p.PTheta,
	}
}

var defaultValues = map[string]any{ // in atomic units
	"Td":               0.,
	"Omega1":           0.057,
	"Omega2":           0.114,
	"Eta1":             0.,
	"Eta2":             0.,
	"N1":               3.,
	"N2":               3.,
	"F0":               1.,
	"F0Imag":           0.,
	"P":                0.,
	"PTheta":           0.,
	"SweepPoints":      10,
	"LeftBorder":       -100.,
	"RightBorder":      100.,
	"Frequency":        10,
	"Precision":        1e-3,
	"Workers":          0,
	"Tolerance":        1e-10,
	"MaxIterations":    50,
	"QuadraturePoints": 64,
	"Envelope":         "fading",
	"Stages":           []string{"ion", "propel"},
	"Combiner":         "multiply",
	"Reducer":          "euclid",
	"MakeDir":          false,
}

var defaultUnits = []string{"Ha", "au_time", "au_field"}

var fieldsXor = map[string][]string{
	"Ip":            {"CrossSections"},
	"CrossSections": {"Ip"},
	"Td":            {"SweepFrom", "SweepTo", "SweepPoints"},
	"SweepFrom":     {"Td"},
	"SweepTo":       {"Td"},
	"SweepPoints":   {"Td"},
}

var fieldsAnd = map[string][]string{
	"SweepFrom":   {"SweepTo"},
	"SweepTo":     {"SweepFrom"},
	"SweepPoints": {"SweepFrom"},
}

var requiredFields = []string{"F", "Ip"}

var valueUnits = map[string][]UnitElement{
	"Td":          {{Class: Time, Power: 1}},
	"SweepFrom":   {{Class: Time, Power: 1}},
	"SweepTo":     {{Class: Time, Power: 1}},
	"LeftBorder":  {{Class: Time, Power: 1}},
	"RightBorder": {{Class: Time, Power: 1}},
	"Omega1":      {{Class: Time, Power: -1}},
	"Omega2":      {{Class: Time, Power: -1}},
	"F":           {{Class: Field, Power: 1}},
	"Ip":          {{Class: Energy, Power: 1}},
}

// ValueUnits is the unit composition of a field; nil for dimensionless ones.
func ValueUnits(field string) []UnitElement {
	return valueUnits[field]
}

// ionizationThreshold returns the lowest ionization threshold of an LXCat
// file in eV.
var ionizationThreshold = func(path string) (float64, error) {
	crossSections, err := lxgata.LoadCrossSections(path)
	if err != nil {
		return 0, err
	}
	return crossSections.MinThresholdOfKind(lxgata.IONIZATION), nil
}

// IonizationPotential is the lowest ionization threshold of a cross
// section set, in Hartree.
func IonizationPotential(path string) (float64, error) {
	threshold, err := ionizationThreshold(path)
	if err != nil {
		return 0, fmt.Errorf("invalid cross section file: %w", err)
	}
	if threshold <= 0 {
		return 0, fmt.Errorf("%w: %s has no ionization process", ErrBadValue, path)
	}
	return utils.EV2Ha(threshold), nil
}

var calculableFields = map[string]func(*ModelParameters) ([]string, error){
	"CrossSections": func(mp *ModelParameters) ([]string, error) {
		ip, err := IonizationPotential(mp.CrossSections)
		if err != nil {
			return nil, err
		}
		mp.Ip = ip
		return []string{"Ip"}, nil
	},
}

func (modelConfig *ModelParameters) toAtomic(parameterNames, units []string) {
	modelConfigReflect := reflect.ValueOf(modelConfig).Elem()
	for _, name := range parameterNames {
		field := modelConfigReflect.FieldByName(name)
		if field.CanFloat() {
			field.SetFloat(Atomic(field.Float(), valueUnits[name], units, true))
		}
	}
}

func checkFieldProblems(path []string, meta *toml.MetaData) (ambiguities [][]string, missingDeps []string) {
	for field, alternatives := range fieldsXor {
		if !meta.IsDefined(slices.Concat(path, []string{field})...) {
			continue
		}
		var found []string
		for _, alternative := range alternatives {
			if meta.IsDefined(slices.Concat(path, []string{alternative})...) {
				found = append(found, alternative)
			}
		}
		if len(found) > 0 {
			ambiguities = append(ambiguities, append([]string{field}, found...))
		}
	}

	for field, requirements := range fieldsAnd {
		if !meta.IsDefined(slices.Concat(path, []string{field})...) {
			continue
		}
		for _, requirement := range requirements {
			if !meta.IsDefined(slices.Concat(path, []string{requirement})...) {
				missingDeps = append(missingDeps, requirement)
			}
		}
	}
	return
}

/*
field value priority:
1. model
2. global
3. default
4. calculated from another field

model fields exclude their xor alternatives from global and default values,
global fields exclude theirs from default values.
*/

func (modelConfig *ModelParameters) CheckAndUnify(modelName string, config *Config, meta *toml.MetaData) error {
	modelPath := []string{"Models", modelName}
	if ambiguities, _ := checkFieldProblems(nil, meta); len(ambiguities) > 0 {
		return fmt.Errorf("%w in global parameters: %v", ErrAmbiguous, ambiguities)
	}
	if ambiguities, _ := checkFieldProblems(modelPath, meta); len(ambiguities) > 0 {
		return fmt.Errorf("%w in model %s: %v", ErrAmbiguous, modelName, ambiguities)
	}

	var discovered []string
	excluded := map[string]struct{}{}
	exclude := func(field string) {
		for _, alternative := range fieldsXor[field] {
			excluded[alternative] = struct{}{}
		}
	}

	modelReflect := reflect.ValueOf(modelConfig).Elem()
	modelType := modelReflect.Type()
	for i := range modelType.NumField() {
		fieldName := modelType.Field(i).Name
		if meta.IsDefined(slices.Concat(modelPath, []string{fieldName})...) {
			discovered = append(discovered, fieldName)
			exclude(fieldName)
		}
	}

	globalReflect := reflect.ValueOf(&config.ModelParameters).Elem()
	for i := range modelType.NumField() {
		fieldName := modelType.Field(i).Name
		if _, some := excluded[fieldName]; some || slices.Contains(discovered, fieldName) || !meta.IsDefined(fieldName) {
			continue
		}
		modelReflect.Field(i).Set(globalReflect.Field(i))
		discovered = append(discovered, fieldName)
		exclude(fieldName)
	}

	for _, field := range discovered {
		for _, requirement := range fieldsAnd[field] {
			if !slices.Contains(discovered, requirement) {
				return fmt.Errorf("%w: %s requires %s", ErrMissing, field, requirement)
			}
		}
	}

	modelConfig.toAtomic(discovered, config.InputUnits)

	for fieldName, value := range defaultValues {
		if _, x := excluded[fieldName]; !x && !slices.Contains(discovered, fieldName) {
			modelReflect.FieldByName(fieldName).Set(reflect.ValueOf(value))
			discovered = append(discovered, fieldName)
		}
	}

	for fieldName, calculate := range calculableFields {
		if !slices.Contains(discovered, fieldName) {
			continue
		}
		calculated, err := calculate(modelConfig)
		if err != nil {
			return fmt.Errorf("model %s: %w", modelName, err)
		}
		discovered = append(discovered, calculated...)
	}

	var missing []string
	for _, field := range requiredFields {
		if !slices.Contains(discovered, field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in model %s: %v", ErrMissing, modelName, missing)
	}
	if err := modelConfig.validate(); err != nil {
		return fmt.Errorf("model %s: %w", modelName, err)
	}

	modelConfig._outputUnits = config.OutputUnits
	modelConfig._sweep = slices.Contains(discovered, "SweepFrom")
	return nil
}

func (p *ModelParameters) validate() error {
	switch {
	case p.Td < 0 || p.SweepFrom < 0 || p.SweepTo < 0:
		return fmt.Errorf("%w: delays must be non-negative", ErrBadValue)
	case p.Ip <= 0:
		return fmt.Errorf("%w: Ip must be positive", ErrBadValue)
	case p.Omega1 <= 0 || p.Omega2 <= 0:
		return fmt.Errorf("%w: frequencies must be positive", ErrBadValue)
	case p.N1 <= 0 || p.N2 <= 0:
		return fmt.Errorf("%w: cycle counts must be positive", ErrBadValue)
	case p.LeftBorder > p.RightBorder:
		return fmt.Errorf("%w: LeftBorder exceeds RightBorder", ErrBadValue)
	case p.Frequency < 1:
		return fmt.Errorf("%w: Frequency must be positive", ErrBadValue)
	case p.Precision <= 0:
		return fmt.Errorf("%w: Precision must be positive", ErrBadValue)
	case len(p.Stages) == 0:
		return fmt.Errorf("%w: no stages", ErrBadValue)
	}
	return nil
}
