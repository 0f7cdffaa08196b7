// Package config holds the parameters of a generalize job, loaded from a JSON job file
// and/or command line flags.
package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/perimeterx/marshmallow"
	"golang.org/x/exp/maps"

	"github.com/pdok/generalize/processing"
)

// Job describes one generalize run.
type Job struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
	// Layers to process, all layers of the source when empty.
	Layers           []string `json:"layers"`
	PageSize         int      `json:"pagesize" default:"1000" validate:"min=1"`
	Overwrite        bool     `json:"overwrite"`
	Tolerance        float64  `json:"tolerance" validate:"gte=0"`
	PreserveTopology bool     `json:"preserveTopology"`
	Namespace        string   `json:"namespace" default:"http://www.pdok.nl/generalize" validate:"required,uri"`
	LogLevel         string   `json:"loglevel" default:"info" validate:"oneof=trace debug info warn error"`

	unknown []string
}

// New returns a Job with all defaults applied.
func New() (*Job, error) {
	var job Job
	if err := defaults.Set(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Load reads a job file. The result is not validated yet, flags may still complete it.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read job file: %w", err)
	}
	var job Job
	if err = json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("could not parse job file %s: %w", path, err)
	}
	return &job, nil
}

func (j *Job) UnmarshalJSON(data []byte) error {
	err := defaults.Set(j)
	if err != nil {
		return err
	}

	specials, err := marshmallow.Unmarshal(data, j, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	j.unknown = maps.Keys(specials)
	slices.Sort(j.unknown)
	return nil
}

// UnknownKeys lists keys of the job file that no field takes, sorted.
func (j *Job) UnknownKeys() []string {
	return j.unknown
}

func (j *Job) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(j)
}

// Options are the processing options of the job.
func (j *Job) Options() processing.Options {
	return processing.Options{
		Tolerance:        j.Tolerance,
		PreserveTopology: j.PreserveTopology,
		Namespace:        j.Namespace,
	}
}
