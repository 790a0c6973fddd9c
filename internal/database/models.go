package database

import (
	"time"
)

// ConvergenceRun is one convergence study
type ConvergenceRun struct {
	RunID     string    `gorm:"primaryKey;column:run_id"`
	Method    string    `gorm:"column:method;not null"`
	Variable  string    `gorm:"column:uncertain_variable;not null"`
	Layout    string    `gorm:"column:layout;not null"`
	WakeModel string    `gorm:"column:wake_model"`
	NOffset   int       `gorm:"column:noffset"`
	Offset    int       `gorm:"column:offset"`
	Verbose   bool      `gorm:"column:verbose"`
	StartedAt time.Time `gorm:"column:started_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for ConvergenceRun
func (ConvergenceRun) TableName() string {
	return "convergence_runs"
}

// ConvergenceIteration is one sample-count iteration of a run. Point arrays
// are stored as JSON.
type ConvergenceIteration struct {
	RunID       string    `gorm:"primaryKey;column:run_id"`
	SampleCount int       `gorm:"primaryKey;column:sample_count"`
	Samples     int       `gorm:"column:samples"`
	MeanGWh     float64   `gorm:"column:mean_gwh"`
	StdGWh      float64   `gorm:"column:std_gwh"`
	Degraded    bool      `gorm:"column:degraded"`
	Anomaly     string    `gorm:"column:anomaly"`
	Directions  []float64 `gorm:"column:winddirections;serializer:json"`
	Speeds      []float64 `gorm:"column:windspeeds;serializer:json"`
	Weights     []float64 `gorm:"column:weights;serializer:json"`
	Power       []float64 `gorm:"column:power;serializer:json"`
	ElapsedMS   int64     `gorm:"column:elapsed_ms"`
}

// TableName specifies the table name for ConvergenceIteration
func (ConvergenceIteration) TableName() string {
	return "convergence_iterations"
}
