package clove

// Check parses and evaluates src against root, returning the truthiness
// of the final value and an empty diagnostic on success, or false and a
// diagnostic message if lexing, parsing, or evaluation failed.
func Check(src string, root Value, envLookup func(name string) (string, bool)) (bool, string) {
	q, err := ParseString(src)
	if err != nil {
		return false, err.Error()
	}
	result, err := Eval(q, root, envLookup, nil)
	if err != nil {
		return false, err.Error()
	}
	return truthy(result), ""
}

// Runner bundles a UDF table and environment-lookup function so a host
// can repeatedly run queries against that fixed configuration without
// re-threading them through every call. It is a convenience wrapper, not
// part of the four-entry-point evaluation contract in its own right.
type Runner struct {
	Udfs   map[string]PreloadedUdf
	EnvVar func(name string) (string, bool)
}

// NewRunner constructs a Runner with an empty UDF table and no
// environment-variable access (every EnvVar reference resolves to null).
func NewRunner() *Runner {
	return &Runner{Udfs: make(map[string]PreloadedUdf)}
}

// LoadUdf parses a single preloaded UDF's body source and registers it
// under name with the given arity, for use by the CLI's loadUdfFile
// (cmd/clove) or any other host assembling a UDF table.
func (r *Runner) LoadUdf(name string, arity int, bodySrc string) error {
	q, err := ParseString(bodySrc)
	if err != nil {
		return err
	}
	if len(q.Stages) != 1 {
		return parseErrorf(Position{}, "UDF body %q must be a single expression, found a %d-stage pipeline", name, len(q.Stages))
	}
	be, ok := q.Stages[0].(*BareExpr)
	if !ok {
		return parseErrorf(Position{}, "UDF body %q must be a bare expression, not a stage", name)
	}
	r.Udfs[name] = PreloadedUdf{Arity: arity, Body: be.Value}
	return nil
}

// Run lexes, parses, and evaluates src against root using the Runner's
// configured UDF table and environment lookup.
func (r *Runner) Run(src string, root Value) (Value, error) {
	q, err := ParseString(src)
	if err != nil {
		return Value{}, err
	}
	return Eval(q, root, r.EnvVar, r.Udfs)
}

// RunJSON is Run over raw JSON bytes in and out, for hosts that don't
// already hold a decoded Value.
func (r *Runner) RunJSON(src string, inputJSON []byte) ([]byte, error) {
	root, err := FromJSON(inputJSON)
	if err != nil {
		return nil, err
	}
	result, err := r.Run(src, root)
	if err != nil {
		return nil, err
	}
	return result.ToJSON()
}
