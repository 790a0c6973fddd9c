package study

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/windaep/internal/constants"
	"github.com/chrissnell/windaep/internal/types"
)

// Metadata identifies how a record was produced
type Metadata struct {
	Method    types.Method
	Variable  types.UncertainVariable
	Layout    types.LayoutName
	WakeModel string
	NOffset   int
	Offset    int
	Verbose   bool
}

// Iteration is the result of one sample-count iteration. Mean and Std are in
// GWh per year.
type Iteration struct {
	SampleCount int
	Samples     int
	Mean        float64
	Std         float64
	Directions  []float64
	Speeds      []float64
	Power       []float64
	Weights     []float64
	Degraded    bool
	Anomaly     string
	Elapsed     time.Duration
}

// Record accumulates the iterations of one convergence study. It only grows.
// A record belongs to the Study that fills it and is not safe for concurrent
// use.
type Record struct {
	RunID     uuid.UUID
	Metadata  Metadata
	StartedAt time.Time

	iterations []Iteration
}

// NewRecord returns an empty record with a fresh run ID
func NewRecord(meta Metadata) *Record {
	return &Record{
		RunID:     uuid.New(),
		Metadata:  meta,
		StartedAt: time.Now().UTC(),
	}
}

// Append adds it to the record. Sample counts must strictly increase.
func (r *Record) Append(it Iteration) error {
	if n := len(r.iterations); n > 0 && it.SampleCount <= r.iterations[n-1].SampleCount {
		return fmt.Errorf("sample count %d does not follow %d", it.SampleCount, r.iterations[n-1].SampleCount)
	}
	r.iterations = append(r.iterations, it)
	return nil
}

// Iterations returns a copy of the recorded iterations
func (r *Record) Iterations() []Iteration {
	return append([]Iteration(nil), r.iterations...)
}

// Len returns the number of recorded iterations
func (r *Record) Len() int {
	return len(r.iterations)
}

// Document is the persisted form of a record. Point arrays hold one entry
// per iteration when the record is verbose and the latest iteration only
// otherwise.
type Document struct {
	RunID        string      `json:"run_id"`
	Mean         []float64   `json:"mean"`
	Std          []float64   `json:"std"`
	Samples      []int       `json:"samples"`
	SampleCounts []int       `json:"sample_counts"`
	Degraded     []bool      `json:"degraded"`
	Directions   interface{} `json:"winddirections"`
	Speeds       interface{} `json:"windspeeds"`
	Power        interface{} `json:"power"`
	Weights      interface{} `json:"weights"`
	Method       string      `json:"method"`
	Variable     string      `json:"uncertain_variable"`
	Layout       string      `json:"layout"`
	WakeModel    string      `json:"wake_model"`
	NOffset      int         `json:"Noffset"`
	Offset       int         `json:"offset"`
	AEPFactor    float64     `json:"aep_factor"`
	StartedAt    time.Time   `json:"started_at"`
}

// Document builds the persisted form of the record
func (r *Record) Document() Document {
	its := r.Iterations()
	m := r.Metadata

	doc := Document{
		RunID:        r.RunID.String(),
		Mean:         make([]float64, len(its)),
		Std:          make([]float64, len(its)),
		Samples:      make([]int, len(its)),
		SampleCounts: make([]int, len(its)),
		Degraded:     make([]bool, len(its)),
		Method:       string(m.Method),
		Variable:     string(m.Variable),
		Layout:       string(m.Layout),
		WakeModel:    m.WakeModel,
		NOffset:      m.NOffset,
		Offset:       m.Offset,
		AEPFactor:    constants.HoursPerYear / constants.KWhPerGWh,
		StartedAt:    r.StartedAt,
	}
	for i, it := range its {
		doc.Mean[i] = it.Mean
		doc.Std[i] = it.Std
		doc.Samples[i] = it.Samples
		doc.SampleCounts[i] = it.SampleCount
		doc.Degraded[i] = it.Degraded
	}

	if m.Verbose {
		dirs := make([][]float64, len(its))
		speeds := make([][]float64, len(its))
		power := make([][]float64, len(its))
		weights := make([][]float64, len(its))
		for i, it := range its {
			dirs[i], speeds[i], power[i], weights[i] = it.Directions, it.Speeds, it.Power, it.Weights
		}
		doc.Directions, doc.Speeds, doc.Power, doc.Weights = dirs, speeds, power, weights
	} else {
		var last Iteration
		if len(its) > 0 {
			last = its[len(its)-1]
		}
		doc.Directions = nonNil(last.Directions)
		doc.Speeds = nonNil(last.Speeds)
		doc.Power = nonNil(last.Power)
		doc.Weights = nonNil(last.Weights)
	}
	return doc
}

// MarshalJSON encodes the record as its Document
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document())
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
