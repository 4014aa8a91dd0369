// Package health serves the gateway's liveness probe.
//
// The primary listener answers GET /_health with 200 "Ok" and never consults
// the upstream. A secondary listener may expose the same route by forwarding
// each probe to the primary listener:
//
//	fwd, err := health.NewForwarder(health.ForwarderConfig{
//	    Target: health.ForwardTarget("0.0.0.0", 3030),
//	})
//	if err != nil {
//	    return err
//	}
//	mux.Handle(health.Path, health.Handler(fwd, logger))
//
// The forwarded status and body are relayed unchanged. A probe that cannot be
// completed is answered with 500 "Internal Server Error".
package health
