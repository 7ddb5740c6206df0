package graph

import (
	"context"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/ai"
)

// scriptedOracle answers every call through reply, which sees the user
// prompt and the first system prompt.
type scriptedOracle struct {
	mu    sync.Mutex
	reply func(prompt, system string) (string, error)
	calls []string
}

func (o *scriptedOracle) answer(prompt string, opts []ai.GenerateOption) (string, error) {
	options := ai.ApplyOptions(ai.GenerateOptions{}, opts...)
	system := ""
	if len(options.SystemPrompts) > 0 {
		system = options.SystemPrompts[0]
	}

	o.mu.Lock()
	o.calls = append(o.calls, system)
	o.mu.Unlock()

	return o.reply(prompt, system)
}

func (o *scriptedOracle) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return o.answer(prompt, opts)
}

func (o *scriptedOracle) GenerateCompletionWithFormat(
	ctx context.Context,
	name, description, prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	reply, err := o.answer(prompt, opts)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(reply, out)
}

func (o *scriptedOracle) ResetMetrics()               {}
func (o *scriptedOracle) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func (o *scriptedOracle) callsWith(system string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, c := range o.calls {
		if c == system {
			n++
		}
	}
	return n
}

func isExtract(system string) bool { return system == ai.ExtractSystemPrompt }

func windowOf(prompt string) string {
	start := strings.Index(prompt, "```\n")
	if start < 0 {
		return ""
	}
	return strings.TrimSuffix(prompt[start+4:], "\n```")
}
