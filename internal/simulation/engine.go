// Package simulation fabricates a believable offline execution trace
// when the remote backend is unreachable. It asks the generative model
// for a structured plan, then replays the plan's steps with paced
// delays. It never claims real work was performed.
package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jonathan/celia-console/internal/llm"
	"github.com/jonathan/celia-console/internal/types"
)

// EventKind discriminates simulation events.
type EventKind string

// Event kinds. A run emits any number of log events followed by at most
// one complete event; the channel closes after the terminal event.
const (
	EventLog      EventKind = "log"
	EventComplete EventKind = "complete"
)

// Event is one message from a simulation run. Log events carry Message
// and Type; the complete event carries Files.
type Event struct {
	Kind    EventKind
	Message string
	Type    types.EntryType
	Files   []types.FileArtifact
}

// Request holds the creation-time parameters of the job being simulated.
type Request struct {
	Task      string
	RepoURL   string
	Persona   string
	UseSearch bool
}

// slowStepDelay paces steps that pretend to hit external services.
const slowStepDelay = 3500 * time.Millisecond

// Engine runs simulations. Safe for concurrent use; each Run is an
// independent goroutine with its own event channel.
type Engine struct {
	client llm.Client
	sleep  func(ctx context.Context, d time.Duration) error
	delay  func(step types.SimulationStep) time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithSleep replaces the pacing sleep, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// WithDelay replaces the per-step delay function, for tests.
func WithDelay(delay func(step types.SimulationStep) time.Duration) Option {
	return func(e *Engine) { e.delay = delay }
}

// New creates an Engine over the given model client.
func New(client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		client: client,
		sleep:  sleepCtx,
		delay:  stepDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run starts a simulation and returns its event channel. Events are
// strictly sequential; the channel closes after the complete event, or
// after a single error log event if the plan could not be obtained (in
// which case no complete event is ever sent and the job stays running).
func (e *Engine) Run(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)
	go e.run(ctx, req, events)
	return events
}

func (e *Engine) run(ctx context.Context, req Request, events chan<- Event) {
	defer close(events)

	if !emit(ctx, events, Event{
		Kind:    EventLog,
		Message: "[SYSTEM] Backend unreachable. Switching to local simulation mode.",
		Type:    types.EntryProcess,
	}) {
		return
	}

	plan, err := e.plan(ctx, req)
	if err != nil {
		emit(ctx, events, Event{
			Kind:    EventLog,
			Message: fmt.Sprintf("[ERROR] %v", err),
			Type:    types.EntryError,
		})
		return
	}

	if !emit(ctx, events, Event{
		Kind:    EventLog,
		Message: "[BRAIN] Analyzing task and composing an execution strategy...",
		Type:    types.EntryBrain,
	}) {
		return
	}

	for _, step := range plan.Steps {
		if err := e.sleep(ctx, e.delay(step)); err != nil {
			return
		}
		msg := step.Thought
		if step.Action != "" {
			if msg != "" {
				msg += ": "
			}
			msg += step.Action
		}
		if !emit(ctx, events, Event{Kind: EventLog, Message: msg, Type: step.Type}) {
			return
		}
	}

	emit(ctx, events, Event{Kind: EventComplete, Files: plan.Files})
}

// plan issues the single structured-output model call.
func (e *Engine) plan(ctx context.Context, req Request) (*types.SimulationPlan, error) {
	raw, err := e.client.GenerateJSON(ctx, systemInstruction(req), planPrompt(req))
	if err != nil {
		return nil, &SimulationError{Reason: "model call failed", Cause: err}
	}
	return parsePlan(raw)
}

func systemInstruction(req Request) string {
	persona := req.Persona
	if persona == "" {
		persona = "a senior software engineer"
	}
	instr := "You are " + persona + " simulating the execution of a code-generation job. " +
		"Respond ONLY with a JSON object of the form " +
		`{"steps": [{"thought": string, "action": string, "type": one of ` +
		`"info"|"error"|"success"|"git"|"brain"|"plan"|"process"|"search"|"map"}], ` +
		`"files": [{"name": string, "path": string, "size": integer (optional)}]}. ` +
		"Steps are the ordered trace of your work; files are the artifacts the job would produce."
	if req.UseSearch {
		instr += ` Include at least one step of type "search" consulting external documentation.`
	}
	return instr
}

func planPrompt(req Request) string {
	prompt := "Task: " + req.Task
	if req.RepoURL != "" {
		prompt += "\nRepository: " + req.RepoURL
	}
	return prompt
}

// stepDelay paces the replay: long for steps that pretend to reach
// external services, otherwise a short random think time.
func stepDelay(step types.SimulationStep) time.Duration {
	if step.Type == types.EntrySearch || step.Type == types.EntryMap {
		return slowStepDelay
	}
	return time.Duration(1000+rand.Intn(1500)) * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// emit sends one event unless the context is cancelled.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- ev:
		return true
	}
}
