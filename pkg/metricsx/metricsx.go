// Package metricsx extends github.com/VictoriaMetrics/metrics with helpers
// for building label-carrying metric names.
package metricsx

import "strings"

// Name builds a metric name with a label set, e.g.
// Name("frames_discarded_total", "reason", "overrun") ->
// `frames_discarded_total{reason="overrun"}`. kv must have an even number
// of elements (alternating label name, label value).
//
// base may itself already carry a label set, e.g.
// Name(`writer_calls_total{op="browse"}`, "result", "ok") merges kv into
// the existing set rather than producing a second, nested `{...}` block.
func Name(base string, kv ...string) string {
	b, arg := splitName(base)
	return formatName(b, arg, kv...)
}

func splitName(name string) (base, arg string) {
	if n := len(name); n != 0 {
		base = name
		for i, r := range base {
			if r == '{' {
				if j := len(base) - 1; j > i && base[j] == '}' {
					base, arg = base[:i], base[i+1:j]
					break
				}
			}
		}
	}
	return
}

func formatName(base, arg string, args ...string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('{')
	if arg != "" {
		b.WriteString(arg)
	}
	for i := 1; i < len(args); i += 2 {
		if arg != "" || i > 1 {
			b.WriteByte(',')
		}
		b.WriteString(args[i-1])
		b.WriteString("=\"")
		b.WriteString(args[i])
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}
