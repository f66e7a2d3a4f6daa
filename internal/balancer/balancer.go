// Package balancer computes throughput-balanced production chains.
//
// A balancing run starts from a seed demand for the target item and grows a
// private arena of transform stacks until every input slot is covered by a
// producer. Producers are scaled in whole runs only, so surplus output is
// possible; the efficiency of a result measures how much of the produced
// throughput is actually consumed.
//
// The algorithm is a greedy local heuristic. It does not search for a
// globally optimal plan, and cyclic recipe graphs may fail to settle before
// the iteration cap, which is reported through Result.Converged.
package balancer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"runtime"
	"sort"
	"time"

	"github.com/iwvelando/craft-balancer/internal/recipe"
	"github.com/iwvelando/craft-balancer/pkg/constants"
	"github.com/iwvelando/craft-balancer/pkg/ratutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxRunsPerStep bounds a single scale-up so run counts stay representable.
// Only diverging cycles get near it.
const maxRunsPerStep = math.MaxInt32

// Options tunes a Balancer. Zero values take defaults.
type Options struct {
	MaxIterations int
	Concurrency   int
	MaxRangeSize  int
	Strict        bool
}

// Normalize fills unset options with defaults.
func (o *Options) Normalize() {
	if o.MaxIterations <= 0 {
		o.MaxIterations = constants.DefaultMaxIterations
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.NumCPU()
	}
	if o.MaxRangeSize <= 0 {
		o.MaxRangeSize = constants.DefaultMaxRangeSize
	}
}

// Balancer runs balancing requests against a read-only recipe table. It
// holds no per-request state and may be shared between goroutines.
type Balancer struct {
	logger *zap.Logger
	table  *recipe.Table
	opts   Options
}

// Result is the balanced plan for one target count.
type Result struct {
	Target     string
	Count      int
	Efficiency *big.Rat
	// Used and Wasted are the throughput totals behind Efficiency.
	Used   *big.Rat
	Wasted *big.Rat
	// Demand is the root demand slot for the target item.
	Demand     *ItemRequirement
	Stacks     []*TransformStack
	Iterations int
	Converged  bool
}

// New constructs a Balancer for the provided table.
func New(logger *zap.Logger, table *recipe.Table, opts Options) (*Balancer, error) {
	if table == nil {
		return nil, fmt.Errorf("recipe table cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Normalize()
	return &Balancer{logger: logger, table: table, opts: opts}, nil
}

// Options returns the effective options.
func (b *Balancer) Options() Options {
	return b.opts
}

// Optimize balances req.Target at req.Count. CountMax is ignored; use
// OptimizeRange for ranges. In strict mode a result that hit the iteration
// cap is returned together with ErrNotConverged.
func (b *Balancer) Optimize(req Request) (*Result, error) {
	single := req
	single.CountMax = 0
	if err := single.Validate(0); err != nil {
		optimizeTotal.WithLabelValues(statusError).Inc()
		return nil, err
	}
	return b.optimizeCount(single.Target, single.RawSet(), single.Count)
}

// OptimizeRange balances every count of the request concurrently and
// returns the results by descending efficiency, ties by ascending count.
// Each count runs in its own arena. Cancelling ctx stops counts that have
// not started yet.
func (b *Balancer) OptimizeRange(ctx context.Context, req Request) ([]*Result, error) {
	if err := req.Validate(b.opts.MaxRangeSize); err != nil {
		optimizeTotal.WithLabelValues(statusError).Inc()
		return nil, err
	}

	counts := req.Counts()
	raw := req.RawSet()
	results := make([]*Result, len(counts))
	notConverged := make([]error, len(counts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for i, count := range counts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := b.optimizeCount(req.Target, raw, count)
			if err != nil && !errors.Is(err, ErrNotConverged) {
				return err
			}
			results[i] = res
			notConverged[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortResults(results)

	if err := errors.Join(notConverged...); err != nil {
		return results, err
	}
	return results, nil
}

// SortResults orders results by descending efficiency, ties by ascending
// count.
func SortResults(results []*Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if c := results[i].Efficiency.Cmp(results[j].Efficiency); c != 0 {
			return c > 0
		}
		return results[i].Count < results[j].Count
	})
}

func (b *Balancer) optimizeCount(target string, raw map[string]struct{}, count int) (*Result, error) {
	start := time.Now()

	st, err := b.newState(target, raw, count)
	if err != nil {
		optimizeTotal.WithLabelValues(statusError).Inc()
		return nil, err
	}
	st.balance(b.opts.MaxIterations)
	res := st.finalize()

	optimizeDuration.Observe(time.Since(start).Seconds())
	optimizeIterations.Observe(float64(res.Iterations))
	settlementsTotal.Add(float64(st.settlements))

	if !res.Converged {
		optimizeTotal.WithLabelValues(statusNotConverged).Inc()
		b.logger.Warn("balancing hit the iteration cap, result is unreliable",
			zap.String("op", "balancer.Optimize"),
			zap.String("target", target),
			zap.Int("count", count),
			zap.Int("iterations", res.Iterations),
			zap.Bool("runLimitHit", st.runLimitHit),
		)
		if b.opts.Strict {
			return res, fmt.Errorf("%w: %s x%d after %d iterations", ErrNotConverged, target, count, res.Iterations)
		}
		return res, nil
	}

	optimizeTotal.WithLabelValues(statusConverged).Inc()
	b.logger.Debug("balanced craft",
		zap.String("op", "balancer.Optimize"),
		zap.String("target", target),
		zap.Int("count", count),
		zap.Int("iterations", res.Iterations),
		zap.Int("stacks", len(res.Stacks)),
		zap.String("efficiency", res.Efficiency.FloatString(constants.DecimalPlaces)),
	)
	return res, nil
}

// state is the private arena of one balancing run. stacks[0] is the seed.
type state struct {
	table  *recipe.Table
	raw    map[string]struct{}
	target string
	count  int
	stacks []*TransformStack

	iterations  int
	converged   bool
	settlements int
	runLimitHit bool
}

func (b *Balancer) newState(target string, raw map[string]struct{}, count int) (*state, error) {
	rate, err := b.seedRate(target, raw)
	if err != nil {
		return nil, err
	}

	demand := newRequirement(recipe.ItemStack{Item: target, Count: ratutil.Int(1)})
	demand.UnusedTP.Mul(rate, ratutil.Int(int64(count)))
	seed := &TransformStack{
		Name:  target,
		From:  []*ItemRequirement{demand},
		Time:  ratutil.Int(1),
		Count: count,
	}

	return &state{
		table:  b.table,
		raw:    raw,
		target: target,
		count:  count,
		stacks: []*TransformStack{seed},
	}, nil
}

// seedRate is the target throughput of a single count: the first output
// quantity of the target transform over its time, even when the target is
// a later output. A raw target without a recipe is supplied at one unit per
// count.
func (b *Balancer) seedRate(target string, raw map[string]struct{}) (*big.Rat, error) {
	tf, ok := b.table.TransformByProduct(target)
	if !ok {
		if _, isRaw := raw[target]; isRaw {
			return ratutil.Int(1), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoProducer, target)
	}

	return new(big.Rat).Quo(tf.To[0].Count, tf.Time), nil
}

// balance runs passes until one settles nothing or maxIterations passes
// have run. Stacks appended during a pass are visited in the same pass.
func (st *state) balance(maxIterations int) {
	for pass := 1; pass <= maxIterations; pass++ {
		st.iterations = pass
		settled := false

		for i := 0; i < len(st.stacks); i++ {
			consumer := st.stacks[i]
			for _, in := range consumer.From {
				if !ratutil.IsPositive(in.UnusedTP) {
					continue
				}
				deficit := ratutil.Clone(in.UnusedTP)
				producer := st.producerFor(in.Item.Item)
				out := producer.Output(in.Item.Item)
				if !st.cover(producer, out, deficit) {
					st.runLimitHit = true
					return
				}
				settle(out, in, deficit)
				st.settlements++
				settled = true
			}
		}

		if !settled {
			st.converged = true
			return
		}
	}
}

// producerFor returns the first stack in arena order that outputs item,
// appending a new one when none does.
func (st *state) producerFor(item string) *TransformStack {
	for _, s := range st.stacks {
		if s.Output(item) != nil {
			return s
		}
	}

	var producer *TransformStack
	if _, isRaw := st.raw[item]; isRaw {
		producer = newRawStack(item)
	} else if tf, ok := st.table.TransformByProduct(item); ok && tf.Produces(item) {
		producer = NewStack(tf)
	} else {
		producer = newRawStack(item)
	}
	st.stacks = append(st.stacks, producer)
	return producer
}

// cover scales producer by the fewest whole runs that lift out.UnusedTP to
// at least deficit. It reports false when a recipe stack would exceed
// maxRunsPerStep. Raw stubs never count runs, so only the deficit bounds
// them.
func (st *state) cover(producer *TransformStack, out *ItemRequirement, deficit *big.Rat) bool {
	if out.UnusedTP.Cmp(deficit) >= 0 {
		return true
	}
	if producer.raw {
		out.UnusedTP.Set(deficit)
		return true
	}
	missing := new(big.Rat).Sub(deficit, out.UnusedTP)
	runs := ratutil.Ceil(missing.Quo(missing, producer.perRun(out)))
	if !runs.IsInt64() || runs.Int64() > maxRunsPerStep || int64(producer.Count)+runs.Int64() > maxRunsPerStep {
		return false
	}
	producer.Scale(int(runs.Int64()))
	return true
}

// settle moves amount from the producer output and the consumer input into
// their used throughput.
func settle(out, in *ItemRequirement, amount *big.Rat) {
	out.UnusedTP.Sub(out.UnusedTP, amount)
	out.UsedTP.Add(out.UsedTP, amount)
	in.UnusedTP.Sub(in.UnusedTP, amount)
	in.UsedTP.Add(in.UsedTP, amount)
}
