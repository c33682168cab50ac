package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/bandwalk/internal/report"
)

// Load compiles the report declared by a .cue file, or by the CUE package
// in a directory, and returns it without structural validation.
func Load(path string) (*report.Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &CompileError{Field: "load", Message: err.Error()}
	}

	cfg := &load.Config{Dir: path}
	args := []string{"."}
	if !info.IsDir() {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, &CompileError{Field: "load", Message: fmt.Sprintf("no CUE instances loaded from %s", path)}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	ctx := cuecontext.New()
	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileReport(v.LookupPath(cue.ParsePath("report")))
}

// CompileSource compiles the report field of CUE source text. filename only
// labels error positions.
func CompileSource(filename string, src []byte) (*report.Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileReport(v.LookupPath(cue.ParsePath("report")))
}
