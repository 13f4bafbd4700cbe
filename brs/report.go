package brs

import "fmt"

// AdvisoryKind names the limit an advisory is about.
type AdvisoryKind string

const (
	AdvisoryLabels    AdvisoryKind = "labels"
	AdvisoryVariables AdvisoryKind = "variables"
)

// Advisory reports a function that exceeds a BrightScript limit. The code
// is still generated; whether it runs depends on the target device.
type Advisory struct {
	Function string
	Kind     AdvisoryKind
	Count    int
	Limit    int
}

func (a Advisory) String() string {
	switch a.Kind {
	case AdvisoryLabels:
		return fmt.Sprintf("function %s has %d labels (suggested max %d, hard limit 256)", a.Function, a.Count, a.Limit)
	default:
		return fmt.Sprintf("function %s has %d variables (max %d)", a.Function, a.Count, a.Limit)
	}
}

// FunctionReport describes one generated function.
type FunctionReport struct {
	// Name is the BrightScript identifier of the function.
	Name string
	// Code is the generated Function ... End Function text.
	Code string

	Index     uint32 // function index space position
	Instrs    int    // non-structured instructions in the body
	Labels    int    // labels written
	Params    int
	Locals    int
	StackVars int // distinct stack variables
	Scratch   int // br_table and multi-value helper variables
}

// Variables returns the number of variables the function uses.
func (f *FunctionReport) Variables() int {
	return f.Params + f.Locals + f.StackVars + f.Scratch
}

// Report is the outcome of a successful generation.
type Report struct {
	Functions  []FunctionReport
	Advisories []Advisory
}

// AdvisoriesFor returns the advisories of one function.
func (r *Report) AdvisoriesFor(name string) []Advisory {
	var out []Advisory
	for _, a := range r.Advisories {
		if a.Function == name {
			out = append(out, a)
		}
	}
	return out
}
