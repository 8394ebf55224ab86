// Package instrumentation provides OpenTelemetry metrics and tracing for the
// token issuance core.
//
// The package is built around a single Instrumentation value that owns the
// meter and tracer providers and a Metrics holder with pre-registered
// instruments. When disabled, no-op providers are used so instrumented code
// paths carry zero overhead.
//
// Usage:
//
//	inst, err := instrumentation.New(instrumentation.Config{
//	    ServiceName: "my-auth-server",
//	    Enabled:     true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	srv.SetInstrumentation(inst)
//
// SECURITY: never record actual credential values (access tokens, refresh
// tokens, authorization codes, client secrets) in spans or metrics. Only
// record metadata such as grant types, error kinds, and durations.
package instrumentation
