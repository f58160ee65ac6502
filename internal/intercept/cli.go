// cli.go — Environment/CLI interception: get-environment, get-arguments, initial-cwd. Each
// call records or consumes exactly one event, the canonical contract spec section 9 settles
// the environment-caching open question with — no hidden cache layer in this package.
package intercept

import (
	"os"
	"strings"

	"github.com/wasm-rr/wasm-rr/internal/trace"
)

// ProcessEnvironment is the real host capability used during record: the environment table,
// argument vector, and working directory as the process actually observes them.
type ProcessEnvironment struct {
	// Args is the argument vector presented to the guest (spec section 8 Scenario B notes
	// the leading program name may or may not be included depending on the runtime; engine
	// bootstrap decides what goes here).
	Args []string
}

func (p ProcessEnvironment) environment() []trace.EnvPair {
	raw := os.Environ()
	out := make([]trace.EnvPair, 0, len(raw))
	for _, kv := range raw {
		name, value, _ := strings.Cut(kv, "=")
		out = append(out, trace.EnvPair{Name: name, Value: value})
	}
	return out
}

func (p ProcessEnvironment) initialCwd() *string {
	wd, err := os.Getwd()
	if err != nil {
		return nil
	}
	return &wd
}

// RecordEnvironmentCLI delegates to ProcessEnvironment and logs exactly one event per call.
type RecordEnvironmentCLI struct {
	Host     ProcessEnvironment
	Recorder *trace.Recorder
}

func (r RecordEnvironmentCLI) GetEnvironment() ([]trace.EnvPair, error) {
	entries := r.Host.environment()
	r.Recorder.Append(trace.NewEnvironment(entries))
	return entries, nil
}

func (r RecordEnvironmentCLI) GetArguments() ([]string, error) {
	r.Recorder.Append(trace.NewArguments(r.Host.Args))
	return r.Host.Args, nil
}

func (r RecordEnvironmentCLI) InitialCwd() (*string, error) {
	cwd := r.Host.initialCwd()
	r.Recorder.Append(trace.NewInitialCwd(cwd))
	return cwd, nil
}

// ReplayEnvironmentCLI consumes one event per call from a trace.Playback.
type ReplayEnvironmentCLI struct {
	Playback *trace.Playback
}

func (r ReplayEnvironmentCLI) GetEnvironment() ([]trace.EnvPair, error) {
	e, err := r.Playback.Next("cli.get-environment", trace.CallEnvironment)
	if err != nil {
		return nil, err
	}
	return e.Entries, nil
}

func (r ReplayEnvironmentCLI) GetArguments() ([]string, error) {
	e, err := r.Playback.Next("cli.get-arguments", trace.CallArguments)
	if err != nil {
		return nil, err
	}
	return e.Args, nil
}

func (r ReplayEnvironmentCLI) InitialCwd() (*string, error) {
	e, err := r.Playback.Next("cli.initial-cwd", trace.CallInitialCwd)
	if err != nil {
		return nil, err
	}
	return e.Path, nil
}

var (
	_ EnvironmentCLI = RecordEnvironmentCLI{}
	_ EnvironmentCLI = ReplayEnvironmentCLI{}
)
