package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/carlmjohnson/versioninfo"
	"github.com/goccy/go-json"
	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/pdok/generalize/config"
	"github.com/pdok/generalize/geojson"
	"github.com/pdok/generalize/gpkg"
	"github.com/pdok/generalize/processing"
	"github.com/pdok/generalize/registry"
)

const SOURCE string = `source`
const TARGET string = `target`
const OVERWRITE string = `overwrite`
const TOLERANCE string = `tolerance`
const PRESERVETOPOLOGY string = `preserveTopology`
const LAYERS string = `layers`
const PAGESIZE string = `pagesize`
const NAMESPACE string = `namespace`
const JOB string = `job`
const LOGLEVEL string = `loglevel`

type source interface {
	processing.Source
	io.Closer
}

type target interface {
	processing.Target
	io.Closer
}

//nolint:funlen
func main() {
	app := cli.NewApp()
	app.Name = "generalize"
	app.Usage = "A Golang geometry simplification application"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    SOURCE,
			Aliases: []string{"s"},
			Usage:   "Source GPKG or GeoJSON file",
			EnvVars: []string{strcase.ToScreamingSnake(SOURCE)},
		},
		&cli.StringFlag{
			Name:    TARGET,
			Aliases: []string{"t"},
			Usage:   "Target GPKG or GeoJSON file. GeoJSON targets get one file per layer, suffixed with the layer name. E.g. target_roads.geojson",
			EnvVars: []string{strcase.ToScreamingSnake(TARGET)},
		},
		&cli.BoolFlag{
			Name:    OVERWRITE,
			Aliases: []string{"o"},
			Usage:   "Overwrite a target GPKG if it exists",
			EnvVars: []string{strcase.ToScreamingSnake(OVERWRITE)},
		},
		&cli.Float64Flag{
			Name:    TOLERANCE,
			Aliases: []string{"d"},
			Usage:   "Distance tolerance in the units of the source CRS",
			EnvVars: []string{strcase.ToScreamingSnake(TOLERANCE)},
		},
		&cli.BoolFlag{
			Name:    PRESERVETOPOLOGY,
			Aliases: []string{"p"},
			Usage:   "Keep the topology of every geometry intact (no self-intersections, no collapsed rings)",
			EnvVars: []string{strcase.ToScreamingSnake(PRESERVETOPOLOGY)},
		},
		&cli.StringFlag{
			Name:    LAYERS,
			Aliases: []string{"l"},
			Usage:   `Layers (tables) to process. JSON array of strings. E.g.: ["roads","water"]. All layers when omitted`,
			EnvVars: []string{strcase.ToScreamingSnake(LAYERS)},
		},
		&cli.IntFlag{
			Name:    PAGESIZE,
			Usage:   "Page Size, how many features are written per transaction to a target GPKG",
			Value:   1000,
			EnvVars: []string{strcase.ToScreamingSnake(PAGESIZE)},
		},
		&cli.StringFlag{
			Name:    NAMESPACE,
			Usage:   "Base URI of the namespaces of the output schemas",
			EnvVars: []string{strcase.ToScreamingSnake(NAMESPACE)},
		},
		&cli.StringFlag{
			Name:    JOB,
			Aliases: []string{"j"},
			Usage:   "JSON job file. Flags that are set override its values",
			EnvVars: []string{strcase.ToScreamingSnake(JOB)},
		},
		&cli.StringFlag{
			Name:    LOGLEVEL,
			Usage:   "trace, debug, info, warn or error",
			EnvVars: []string{strcase.ToScreamingSnake(LOGLEVEL)},
		},
	}

	app.Action = func(c *cli.Context) error {
		job, err := loadJob(c)
		if err != nil {
			return err
		}
		level, err := zerolog.ParseLevel(job.LogLevel)
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		for _, key := range job.UnknownKeys() {
			log.Warn().Str("key", key).Msg("unknown key in job file ignored")
		}
		ctx := log.Logger.WithContext(c.Context)
		return run(ctx, job)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Msg("generalize failed")
	}
}

// loadJob reads the job file, if any, and applies the flags that are set on top of it.
func loadJob(c *cli.Context) (*config.Job, error) {
	var job *config.Job
	var err error
	if c.IsSet(JOB) {
		job, err = config.Load(c.String(JOB))
	} else {
		job, err = config.New()
	}
	if err != nil {
		return nil, err
	}

	if c.IsSet(SOURCE) {
		job.Source = c.String(SOURCE)
	}
	if c.IsSet(TARGET) {
		job.Target = c.String(TARGET)
	}
	if c.IsSet(OVERWRITE) {
		job.Overwrite = c.Bool(OVERWRITE)
	}
	if c.IsSet(TOLERANCE) {
		job.Tolerance = c.Float64(TOLERANCE)
	}
	if c.IsSet(PRESERVETOPOLOGY) {
		job.PreserveTopology = c.Bool(PRESERVETOPOLOGY)
	}
	if c.IsSet(LAYERS) {
		if err = json.Unmarshal([]byte(c.String(LAYERS)), &job.Layers); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", LAYERS, err)
		}
	}
	if c.IsSet(PAGESIZE) {
		job.PageSize = c.Int(PAGESIZE)
	}
	if c.IsSet(NAMESPACE) {
		job.Namespace = c.String(NAMESPACE)
	}
	if c.IsSet(LOGLEVEL) {
		job.LogLevel = c.String(LOGLEVEL)
	}
	return job, job.Validate()
}

func run(ctx context.Context, job *config.Job) error {
	src, err := openSource(job.Source)
	if err != nil {
		return err
	}
	defer src.Close()

	tgt, err := openTarget(job.Target, job.Overwrite, job.PageSize)
	if err != nil {
		return err
	}
	defer tgt.Close()

	schemas := registry.New()
	logger := zerolog.Ctx(ctx)
	lastReported := make(map[string]int)
	progress := func(layer string, percent int) {
		// every 10 percent is enough
		if percent/10 > lastReported[layer]/10 {
			lastReported[layer] = percent
			logger.Info().Str("layer", layer).Int("percent", percent).Msg("progress")
		}
	}

	logger.Info().
		Str("source", job.Source).
		Str("target", job.Target).
		Float64("tolerance", job.Tolerance).
		Bool("preserveTopology", job.PreserveTopology).
		Msg("=== start simplifying ===")
	err = processing.ProcessSource(ctx, src, tgt, job.Layers, job.Options(), progress, schemas.Register)
	if err != nil {
		return err
	}
	for _, name := range schemas.Registered() {
		logger.Info().Str("schema", name.String()).Msg("registered")
	}
	logger.Info().Msg("=== done simplifying ===")
	return nil
}

func isGeoJSON(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return true
	default:
		return false
	}
}

func openSource(path string) (source, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("error opening source: %w", err)
	}
	if isGeoJSON(path) {
		s, err := geojson.OpenSource(path)
		if err != nil {
			return nil, err
		}
		return nopCloser{Source: s}, nil
	}
	return gpkg.OpenSource(path)
}

func openTarget(path string, overwrite bool, pagesize int) (target, error) {
	if isGeoJSON(path) {
		return nopCloser{Target: geojson.NewTarget(path)}, nil
	}
	if overwrite {
		err := os.Remove(path)
		var pathError *os.PathError
		if err != nil {
			if !(errors.As(err, &pathError) && errors.Is(pathError.Err, syscall.ENOENT)) {
				return nil, fmt.Errorf("could not remove target file: %w", err)
			}
		}
	}
	return gpkg.OpenTarget(path, pagesize)
}

// nopCloser lets file based sources and targets pass as closable ones.
type nopCloser struct {
	processing.Source
	processing.Target
}

func (nopCloser) Close() error {
	return nil
}
