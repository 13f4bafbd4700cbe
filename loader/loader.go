package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/MotleyCoderDev/wasm2brs/errors"
	"github.com/MotleyCoderDev/wasm2brs/wasm"
)

// Features is the set of core features accepted during validation.
const Features = api.CoreFeaturesV1 |
	api.CoreFeatureSignExtensionOps |
	api.CoreFeatureNonTrappingFloatToIntConversion |
	api.CoreFeatureMultiValue

// Options configures loading.
type Options struct {
	// SkipValidation decodes without running the wazero validator.
	SkipValidation bool
}

// Load validates and decodes a module binary.
func Load(ctx context.Context, data []byte, opts Options) (*wasm.Module, error) {
	log := Logger()

	if opts.SkipValidation {
		log.Debug("validation skipped")
	} else if err := Validate(ctx, data); err != nil {
		return nil, err
	}

	m, err := wasm.ParseModule(data)
	if err != nil {
		return nil, errors.Decode("parse module", err)
	}
	if err := Check(m); err != nil {
		return nil, err
	}

	log.Debug("module loaded",
		zap.Int("bytes", len(data)),
		zap.Int("imports", len(m.Imports)),
		zap.Int("functions", len(m.Funcs)),
		zap.Int("exports", len(m.Exports)))
	return m, nil
}

// LoadFile reads path and loads it.
func LoadFile(ctx context.Context, path string, opts Options) (*wasm.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindNotFound, err, "read "+path)
	}
	return Load(ctx, data, opts)
}

// Validate compiles data with a wazero interpreter restricted to Features.
// Compilation performs full validation without instantiating anything, so
// imports need not be satisfied.
func Validate(ctx context.Context, data []byte) error {
	cfg := wazero.NewRuntimeConfigInterpreter().WithCoreFeatures(Features)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindUnsupported, err, "validate module")
	}
	return compiled.Close(ctx)
}

// Check rejects modules the generator cannot lower as a whole.
func Check(m *wasm.Module) error {
	if n := m.NumMemories(); n > 1 {
		return errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("%d memories (multi-memory)", n))
	}
	if n := m.NumTables(); n > 1 {
		return errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("%d tables (multi-table)", n))
	}
	for i, mem := range m.Memories {
		if mem.Limits.Shared {
			return errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("shared memory %d", i))
		}
	}
	return nil
}
