// Package llm provides a minimal text-completion capability over
// hosted model providers.
package llm

import (
	"context"
	"fmt"
)

// Completer is the one operation the answering layer needs: turn a
// prompt into generated text. Provider adapters normalize their native
// response shapes to a plain string at this boundary so nothing
// downstream branches on response shape.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a raw callable into a Completer. The callable
// may return a plain string or a looser shape such as a map; Normalize
// flattens whatever comes back.
type CompleterFunc func(ctx context.Context, prompt string) (any, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := f(ctx, prompt)
	if err != nil {
		return "", err
	}
	return Normalize(out), nil
}

// resultKeys are tried in order when a completion comes back as a map.
var resultKeys = []string{"content", "text", "output", "result"}

// Normalize flattens a loosely-typed completion result to a string.
// Maps yield the first present of the keys content, text, output,
// result; anything else is stringified.
func Normalize(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, key := range resultKeys {
			if val, ok := t[key]; ok {
				if s, ok := val.(string); ok {
					return s
				}
				return fmt.Sprint(val)
			}
		}
		return fmt.Sprint(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
