package brs

import "go.uber.org/zap"

// Default limits of the BrightScript runtime.
const (
	// DefaultLabelLimit is the suggested maximum number of labels in one
	// function. The interpreter's hard limit is 256.
	DefaultLabelLimit = 128
	// DefaultVariableLimit is the maximum number of variables in one
	// function.
	DefaultVariableLimit = 254
)

// Options configures generation.
type Options struct {
	// Logger overrides the package logger for one run.
	Logger *zap.Logger

	// NamePrefix is prepended to every module-owned global identifier and
	// to the init procedures, so several modules can share one program.
	NamePrefix string

	// LabelLimit is the advisory label threshold; zero means the default.
	LabelLimit int

	// VariableLimit is the advisory variable ceiling; zero means the default.
	VariableLimit int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = Logger()
	}
	if o.LabelLimit <= 0 {
		o.LabelLimit = DefaultLabelLimit
	}
	if o.VariableLimit <= 0 {
		o.VariableLimit = DefaultVariableLimit
	}
	return o
}
