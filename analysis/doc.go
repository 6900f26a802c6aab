// Package analysis implements the field-monitoring fusion pipeline: per-pixel
// health classification of multi-band imagery, short-horizon forecasting of
// point-sensor telemetry, and a deterministic rule engine that fuses both into
// a single prioritized alert.
//
// The three entry points (Classifier.Classify, Forecaster.Forecast, Fuse) are
// total: they never return an error and never panic out. Malformed input,
// missing model artifacts and arithmetic edge cases are absorbed into tagged
// fallback results, and degraded quality is reported through the Source and
// Confidence fields rather than error codes.
//
// Model artifacts are supplied through the ModelRegistry interface; the
// package never touches storage paths itself.
package analysis
