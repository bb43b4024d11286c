// Package metric provides the Prometheus metrics of the showroom runtime.
//
// A MetricsRegistry owns a private prometheus.Registry with the showroom metric set
// (Metrics) and the Go runtime collectors. Packages that need extra metrics register them
// through the MetricsRegistrar interface; duplicate registrations return invalid-class
// errors instead of panicking.
//
// Every Record* method on Metrics accepts a nil receiver, so packages can take an optional
// *Metrics from their dependencies without guarding each call.
//
//	registry := metric.NewMetricsRegistry()
//	rt := component.NewRuntime(component.Dependencies{Metrics: registry.CoreMetrics()})
//	srv := metric.NewServer(":9090", "/metrics", registry)
//	go srv.Run(ctx)
package metric
