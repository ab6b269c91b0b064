// Package routing selects a backend per request from token-budget and
// intent signals, executes it, and applies the one-attempt cloud
// fallback policy.
package routing

import (
	"context"
	"errors"
	"log"

	"github.com/sashabaranov/go-openai"

	"github.com/llmfuse/hybrid-gateway/internal/gateway/providers"
	"github.com/llmfuse/hybrid-gateway/internal/gateway/tokenizer"
)

// Preference is the explicit client routing preference carried on a
// single request. It is one-shot: never cached, never remembered
// across requests.
type Preference string

const (
	PreferenceNone       Preference = "none"
	PreferenceForceLocal Preference = "force-local"
	PreferenceForceCloud Preference = "force-cloud"
)

// CloudPreferenceModel is the client-side convention: requesting this
// model name signals a preference for the cloud path. Any other or
// absent value means automatic routing.
const CloudPreferenceModel = "gpt-oss-120b"

// PreferenceFromModel maps the request body's model field to a
// routing preference.
func PreferenceFromModel(model string) Preference {
	if model == CloudPreferenceModel {
		return PreferenceForceCloud
	}
	return PreferenceNone
}

// Reason records why a request was routed the way it was.
type Reason string

const (
	ReasonExplicitOverride Reason = "explicit-override"
	ReasonTokenThreshold   Reason = "token-threshold"
	ReasonHeavyIntent      Reason = "heavy-intent"
	ReasonLocalDefault     Reason = "local-default"
	ReasonLocalStream      Reason = "local-stream"
)

// Signals are the routing inputs derived fresh for every request.
type Signals struct {
	EstimatedInputTokens int
	HeavyIntent          bool
	Preference           Preference
}

// Decision is produced once per request and never persisted.
type Decision struct {
	Provider string
	Reason   Reason

	// Fallback is set when the cloud attempt failed and the request
	// was silently downgraded to the local provider.
	Fallback bool
}

// Engine routes one request at a time. It holds no per-request state;
// all cross-request coordination lives in the external counter store.
type Engine struct {
	local             providers.StreamingProvider
	cloud             providers.Provider // nil when cloud routing is disabled
	localTokenCeiling int
}

// NewEngine creates a routing engine. Pass a nil cloud provider to
// disable the cloud path entirely.
func NewEngine(local providers.StreamingProvider, cloud providers.Provider, localTokenCeiling int) *Engine {
	return &Engine{
		local:             local,
		cloud:             cloud,
		localTokenCeiling: localTokenCeiling,
	}
}

func (e *Engine) cloudEnabled() bool {
	return e.cloud != nil
}

// ComputeSignals derives the per-request routing signals.
func (e *Engine) ComputeSignals(messages []openai.ChatCompletionMessage, pref Preference) Signals {
	return Signals{
		EstimatedInputTokens: tokenizer.EstimateMessages(messages),
		HeavyIntent:          IsHeavyIntent(messages),
		Preference:           pref,
	}
}

// Complete routes and executes a non-streaming request.
//
// Decision order, first match wins:
//  1. forceCloud preference and cloud enabled -> cloud, explicit-override
//  2. tokens over ceiling or heavy intent, cloud enabled -> cloud,
//     token-threshold (token condition wins reason attribution) or
//     heavy-intent
//  3. otherwise -> local, local-default
//
// At most one cloud attempt is made. A failed cloud attempt is logged
// and downgrades to local for the same request; the caller never sees
// the cloud failure unless local also fails. A cloud configuration
// error is not recoverable and propagates instead of falling back.
func (e *Engine) Complete(ctx context.Context, messages []openai.ChatCompletionMessage, pref Preference) (*providers.CompletionResult, Decision, error) {
	sig := e.ComputeSignals(messages, pref)

	log.Printf("routing decision inputTokens=%d ceiling=%d heavyIntent=%v cloudEnabled=%v preference=%s",
		sig.EstimatedInputTokens, e.localTokenCeiling, sig.HeavyIntent, e.cloudEnabled(), pref)

	var cloudReason Reason
	switch {
	case sig.Preference == PreferenceForceCloud && e.cloudEnabled():
		cloudReason = ReasonExplicitOverride
	case e.cloudEnabled() && sig.EstimatedInputTokens > e.localTokenCeiling:
		cloudReason = ReasonTokenThreshold
	case e.cloudEnabled() && sig.HeavyIntent:
		cloudReason = ReasonHeavyIntent
	}

	if cloudReason != "" {
		result, err := e.cloud.Complete(ctx, messages)
		if err == nil {
			log.Printf("routed to %s (%s)", result.Provider, cloudReason)
			return result, Decision{Provider: result.Provider, Reason: cloudReason}, nil
		}
		if errors.Is(err, providers.ErrNotConfigured) {
			return nil, Decision{Provider: e.cloud.Name(), Reason: cloudReason}, err
		}

		// One attempt only: the override is not retried or remembered.
		log.Printf("cloud agent failed (%s), falling back to local: %v", cloudReason, err)
		return e.completeLocal(ctx, messages, true)
	}

	return e.completeLocal(ctx, messages, false)
}

func (e *Engine) completeLocal(ctx context.Context, messages []openai.ChatCompletionMessage, fallback bool) (*providers.CompletionResult, Decision, error) {
	decision := Decision{Provider: e.local.Name(), Reason: ReasonLocalDefault, Fallback: fallback}

	result, err := e.local.Complete(ctx, messages)
	if err != nil {
		return nil, decision, err
	}

	log.Printf("routed to %s (%s)", result.Provider, ReasonLocalDefault)
	return result, decision, nil
}

// Stream opens a local token stream. Streaming bypasses the cloud path
// entirely in the current design, whatever the signals say: the reason
// is always local-stream.
func (e *Engine) Stream(ctx context.Context, messages []openai.ChatCompletionMessage) (providers.TokenStream, Decision, error) {
	decision := Decision{Provider: e.local.Name(), Reason: ReasonLocalStream}

	log.Printf("routed to %s (%s)", e.local.Name(), ReasonLocalStream)

	stream, err := e.local.Stream(ctx, messages)
	if err != nil {
		return nil, decision, err
	}
	return stream, decision, nil
}
