// Package metrics records stage and run metrics of the manager.
//
// Components receive a Recorder. NoopRecorder is the default and does
// nothing; PrometheusRecorder keeps the metrics in a private registry that
// is written to a node exporter textfile at the end of a run:
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	env.Observer = rec
//	defer rec.WriteTextfile(path)
//
// Every stage of a subproject is reported with its duration and a result
// label derived from the returned error.
package metrics
