package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"datajoin/internal/common/errors"
	"datajoin/internal/common/logging"
	"datajoin/internal/dataset"
	"datajoin/internal/engine"
	"datajoin/internal/join"
	"datajoin/internal/prepare"
	"datajoin/internal/sink"
	"datajoin/internal/source"
	"datajoin/internal/transform"
)

// Output pairs a sink with the engine that computes its dataset
type Output struct {
	Sink   *sink.CSVSink
	Engine engine.Engine
}

// Pipeline is one fully-constructed join job. Each Run is independent and
// owns all of its intermediate datasets.
type Pipeline struct {
	name     string
	left     source.Source
	right    source.Source
	leftPre  []prepare.Op
	rightPre []prepare.Op

	key  join.Key
	mode join.Mode

	rules            []transform.Rule
	onTransformError transform.ErrorPolicy

	outputs []Output
	logger  logging.Logger
}

// Options overrides parts of the job spec at build time
type Options struct {
	// Workers bounds the parallel engine's concurrency; <= 0 uses NumCPU
	Workers int
	// Logger defaults to the global logger
	Logger logging.Logger
}

// FromSpec builds a pipeline from a validated job spec
func FromSpec(spec *JobSpec, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	mode, err := join.ParseMode(spec.Join.Mode)
	if err != nil {
		return nil, err
	}
	policy, err := transform.ParseErrorPolicy(spec.OnTransformError)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		name:             spec.Name,
		key:              join.Key(spec.Join.Key),
		mode:             mode,
		onTransformError: policy,
		logger:           logger,
	}

	leftSpec := spec.Sources[spec.Join.Left]
	rightSpec := spec.Sources[spec.Join.Right]
	if p.left, p.leftPre, err = buildSource(spec.Join.Left, leftSpec); err != nil {
		return nil, err
	}
	if p.right, p.rightPre, err = buildSource(spec.Join.Right, rightSpec); err != nil {
		return nil, err
	}

	for _, step := range spec.Transforms {
		rule, err := transform.New(step.Type, step.Config)
		if err != nil {
			return nil, err
		}
		p.rules = append(p.rules, rule)
	}

	for _, out := range spec.Outputs {
		eng, err := engine.New(out.Engine, opts.Workers)
		if err != nil {
			return nil, err
		}
		p.outputs = append(p.outputs, Output{
			Sink:   sink.NewCSVSink(out.Path),
			Engine: eng,
		})
	}
	return p, nil
}

// buildSource constructs a source and its prepare ops from a source spec
func buildSource(name string, spec SourceSpec) (source.Source, []prepare.Op, error) {
	schemaCols := make([]dataset.Column, len(spec.Schema))
	for i, cs := range spec.Schema {
		t, err := dataset.ParseColumnType(cs.Type)
		if err != nil {
			return nil, nil, err
		}
		if cs.Name == "" {
			return nil, nil, errors.NewConfigError("sources", fmt.Sprintf("source '%s': schema column %d has no name", name, i))
		}
		schemaCols[i] = dataset.Column{Name: cs.Name, Type: t}
	}
	policy, err := dataset.ParseShapePolicy(spec.OnShapeError)
	if err != nil {
		return nil, nil, err
	}

	src, err := source.New(source.Config{
		Type:   spec.Type,
		Name:   name,
		Schema: dataset.NewSchema(schemaCols...),
		Policy: policy,
		Path:   spec.Path,
		DSN:    spec.DSN,
		Table:  spec.Table,
		Query:  spec.Query,
	})
	if err != nil {
		return nil, nil, err
	}

	var ops []prepare.Op
	for _, step := range spec.Prepare {
		op, err := prepare.New(step.Type, step.Config)
		if err != nil {
			return nil, nil, err
		}
		ops = append(ops, op)
	}
	return src, ops, nil
}

// Run executes the pipeline once: validate the key against the post-prepare
// schemas, load both datasets, run every output's engine, verify all engines
// agree byte-for-byte, then write every destination atomically. On any fatal
// error nothing is written.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.NewString()
	logger := p.logger.WithFields(
		logging.String("job", p.name),
		logging.String("run_id", runID),
	)
	started := time.Now()
	logger.Info("pipeline run started")

	// Key and transform chain validation happens before any row is read
	leftSchema, err := prepare.OutputSchema(p.left.Schema(), p.leftPre)
	if err != nil {
		return nil, err
	}
	rightSchema, err := prepare.OutputSchema(p.right.Schema(), p.rightPre)
	if err != nil {
		return nil, err
	}
	if err := join.ValidateKey(p.key, p.left.Name(), leftSchema, p.right.Name(), rightSchema); err != nil {
		return nil, err
	}
	joinedSchema, err := join.OutputSchema(leftSchema, rightSchema, p.key)
	if err != nil {
		return nil, err
	}
	chain, err := transform.NewChain(joinedSchema, p.rules)
	if err != nil {
		return nil, err
	}
	if p.onTransformError == transform.PolicyKeep && !chain.OutputSchema().Equal(joinedSchema) {
		return nil, errors.NewConfigError("on_transform_error",
			"'keep' requires the transform chain to preserve the joined schema")
	}

	left, err := p.loadSide(ctx, logger, p.left, p.leftPre)
	if err != nil {
		return nil, err
	}
	right, err := p.loadSide(ctx, logger, p.right, p.rightPre)
	if err != nil {
		return nil, err
	}

	plan := &engine.Plan{
		Left:             left,
		Right:            right,
		Key:              p.key,
		Mode:             p.mode,
		Chain:            chain,
		OnTransformError: p.onTransformError,
		ResultName:       p.name,
	}

	// One execution per distinct engine; outputs sharing an engine share
	// its bytes
	encoded := make(map[string][]byte)
	rows := make(map[string]int)
	for _, out := range p.outputs {
		name := out.Engine.Name()
		if _, done := encoded[name]; done {
			continue
		}
		engStart := time.Now()
		result, err := out.Engine.Run(ctx, plan)
		if err != nil {
			return nil, err
		}
		data, err := sink.EncodeCSV(result)
		if err != nil {
			return nil, err
		}
		encoded[name] = data
		rows[name] = result.Len()
		logger.Info("engine finished",
			logging.String("engine", name),
			logging.Int("rows", result.Len()),
			logging.Duration("took", time.Since(engStart)),
		)
	}

	// Engine equivalence: all engines must agree bit-for-bit
	var firstEngine string
	var firstBytes []byte
	for _, out := range p.outputs {
		name := out.Engine.Name()
		if firstEngine == "" {
			firstEngine, firstBytes = name, encoded[name]
			continue
		}
		if name != firstEngine && !bytes.Equal(firstBytes, encoded[name]) {
			return nil, errors.NewOutputMismatchError(firstEngine, name)
		}
	}

	result := &RunResult{
		RunID:   runID,
		Job:     p.name,
		Rows:    rows[firstEngine],
		Started: started,
	}
	// Each write is atomic on its own; attempt every destination and
	// aggregate failures rather than stopping at the first one
	var werr *multierror.Error
	for _, out := range p.outputs {
		if err := out.Sink.WriteBytes(encoded[out.Engine.Name()]); err != nil {
			werr = multierror.Append(werr, err)
			continue
		}
		logger.Info("output written",
			logging.String("destination", out.Sink.Destination()),
			logging.String("engine", out.Engine.Name()),
		)
		result.Outputs = append(result.Outputs, out.Sink.Destination())
	}
	if err := werr.ErrorOrNil(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(started)
	logger.Info("pipeline run finished",
		logging.Int("rows", result.Rows),
		logging.Duration("took", result.Duration),
	)
	return result, nil
}

// loadSide loads one source and applies its prepare ops
func (p *Pipeline) loadSide(ctx context.Context, logger logging.Logger, src source.Source, ops []prepare.Op) (*dataset.Dataset, error) {
	start := time.Now()
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded",
		logging.String("dataset", src.Name()),
		logging.Int("records", ds.Len()),
		logging.Duration("took", time.Since(start)),
	)
	prepared, err := prepare.Apply(ds, ops)
	if err != nil {
		return nil, err
	}
	if len(ops) > 0 {
		logger.Info("dataset prepared",
			logging.String("dataset", src.Name()),
			logging.Int("records", prepared.Len()),
		)
	}
	return prepared, nil
}
