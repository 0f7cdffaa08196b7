package processing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// LayerProgressFunc receives the progress of the layer being processed.
type LayerProgressFunc func(layer string, percent int)

// ProcessSource simplifies the given layers of source one after another and writes
// each result to target under the same layer name. Without layers all layers of the
// source are processed. A layer of which every feature was skipped is not written.
func ProcessSource(ctx context.Context, source Source, target Target, layers []string, opts Options,
	progress LayerProgressFunc, register RegisterSchemaFunc) error {
	logger := zerolog.Ctx(ctx)
	if len(layers) == 0 {
		var err error
		layers, err = source.Layers()
		if err != nil {
			return fmt.Errorf("could not list layers: %w", err)
		}
	}

	for _, layer := range layers {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Info().Str("layer", layer).Msg("simplifying")
		collection, err := source.ReadFeatures(layer)
		if err != nil {
			return fmt.Errorf("could not read layer %s: %w", layer, err)
		}

		var layerProgress ProgressFunc
		if progress != nil {
			layerProgress = func(percent int) { progress(layer, percent) }
		}
		result, err := Process(ctx, collection, opts, layerProgress, register)
		var emptyResult *EmptyResultError
		switch {
		case errors.As(err, &emptyResult):
			logger.Warn().Err(err).Str("layer", layer).Msg("nothing to write")
			continue
		case err != nil:
			return fmt.Errorf("could not simplify layer %s: %w", layer, err)
		}

		if err = target.WriteFeatures(layer, result.Collection); err != nil {
			return fmt.Errorf("could not write layer %s: %w", layer, err)
		}
		logger.Info().
			Str("layer", layer).
			Int("total", result.Total).
			Int("skipped", result.Skipped).
			Int("kept", result.Collection.Len()).
			Msg("finished")
	}
	return nil
}
