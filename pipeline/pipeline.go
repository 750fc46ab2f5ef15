// Package pipeline composes multiple Callers (agents, or anything
// shaped like one) into fixed topologies: a sequential chain that
// threads one message through each stage in turn, and a fan-out that
// dispatches one input to every stage and collects their outputs.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/voocel/mas/schema"
)

// Caller is the shape a pipeline stage must have. *agent.Agent
// satisfies it.
type Caller interface {
	Call(ctx context.Context, input schema.Msg) (schema.Msg, error)
}

// SequentialPipeline threads one input through a fixed list of stages
// in order, each stage's output becoming the next stage's input. An
// empty pipeline returns the input unchanged. A failing stage aborts
// the remainder and returns its error.
type SequentialPipeline struct {
	stages []Caller
}

// NewSequentialPipeline builds a SequentialPipeline over stages, in
// the order given.
func NewSequentialPipeline(stages ...Caller) *SequentialPipeline {
	return &SequentialPipeline{stages: append([]Caller(nil), stages...)}
}

func (p *SequentialPipeline) Call(ctx context.Context, input schema.Msg) (schema.Msg, error) {
	current := input
	for i, stage := range p.stages {
		out, err := stage.Call(ctx, current)
		if err != nil {
			return schema.Msg{}, fmt.Errorf("pipeline: stage %d: %w", i, err)
		}
		current = out
	}
	return current, nil
}

// FanoutPipeline dispatches one input to every stage and returns their
// outputs in stage order (not completion order), regardless of
// whether dispatch is concurrent or sequential. Every stage always
// runs to completion — a failing stage does not skip the others — and
// the first stage to fail, by stage order, determines the returned
// error. Concurrent vs. sequential is purely a dispatch-order/latency
// choice, never an observable difference in which stages ran.
type FanoutPipeline struct {
	stages     []Caller
	concurrent bool
}

// NewFanoutPipeline builds a FanoutPipeline. When concurrent is true,
// every stage runs in its own goroutine; otherwise stages run one at a
// time in order. Either way the first-error-by-stage-order policy
// applies identically.
func NewFanoutPipeline(concurrent bool, stages ...Caller) *FanoutPipeline {
	return &FanoutPipeline{stages: append([]Caller(nil), stages...), concurrent: concurrent}
}

func (p *FanoutPipeline) Call(ctx context.Context, input schema.Msg) ([]schema.Msg, error) {
	if p.concurrent {
		return p.callConcurrent(ctx, input)
	}
	return p.callSequential(ctx, input)
}

func (p *FanoutPipeline) callSequential(ctx context.Context, input schema.Msg) ([]schema.Msg, error) {
	results := make([]schema.Msg, len(p.stages))
	errs := make([]error, len(p.stages))
	for i, stage := range p.stages {
		out, err := stage.Call(ctx, input)
		if err != nil {
			errs[i] = err
			continue
		}
		results[i] = out
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("pipeline: stage %d: %w", i, err)
		}
	}
	return results, nil
}

func (p *FanoutPipeline) callConcurrent(ctx context.Context, input schema.Msg) ([]schema.Msg, error) {
	results := make([]schema.Msg, len(p.stages))
	errs := make([]error, len(p.stages))

	var wg sync.WaitGroup
	for i, stage := range p.stages {
		wg.Add(1)
		go func(idx int, s Caller) {
			defer wg.Done()
			out, err := s.Call(ctx, input)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx] = out
		}(i, stage)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("pipeline: stage %d: %w", i, err)
		}
	}
	return results, nil
}
