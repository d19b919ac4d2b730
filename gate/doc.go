// Package gate composes the resilience components into a single client for
// outbound LLM provider calls.
//
// Every call passes through the same pipeline: response cache lookup, rate
// limiter, circuit breaker, pooled connection, network call, breaker
// record, cache store. A cache hit short-circuits the pipeline without
// consuming a rate-limit token or touching the breaker.
//
//	cfg, err := gate.LoadConfig("modelgate.yaml")
//	client, err := gate.NewClient(cfg)
//	defer client.Close()
//
//	result, err := client.Complete(ctx, &gate.CompletionRequest{
//	    Provider: "openai",
//	    Model:    "gpt-4o-mini",
//	    Messages: []tokens.Message{{Role: "user", Content: "hello"}},
//	})
//
// Failures are typed (*gate.Error) and tagged with the stage that produced
// them, so callers can distinguish "try another provider" from "wait and
// retry" from "fatal misconfiguration".
package gate
