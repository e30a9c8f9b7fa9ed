package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/invoice-cli/internal/pipeline"
	"github.com/sells-group/invoice-cli/internal/segment"
	"github.com/sells-group/invoice-cli/internal/understand"
	"github.com/sells-group/invoice-cli/pkg/anthropic"
)

// initPipeline builds the extraction pipeline from loaded config,
// applying command-level strategy/verify overrides.
func initPipeline(strategyOverride string, noVerify bool) (*pipeline.Pipeline, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("cmd: anthropic.key is not configured")
	}

	strategyName := cfg.Pipeline.Strategy
	if strategyOverride != "" {
		strategyName = strategyOverride
	}
	strategy, err := pipeline.ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}

	client := anthropic.NewClient(cfg.Anthropic.Key)
	und := understand.NewRateLimited(
		understand.NewClaude(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens),
		cfg.Anthropic.RatePerSecond,
		cfg.Anthropic.RateBurst,
	)

	seg := segment.New(cfg.Segment)

	return pipeline.New(seg, und, pipeline.Options{
		Strategy:    strategy,
		Verify:      cfg.Pipeline.Verify && !noVerify,
		Concurrency: cfg.Pipeline.Concurrency,
	}), nil
}
