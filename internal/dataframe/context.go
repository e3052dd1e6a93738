package dataframe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownContextLabel is returned when a context label is not recognised.
var ErrUnknownContextLabel = errors.New("unknown context label")

// ContextLabel names a piece of per-row metadata resolved from the process
// that owns the connection. It is not stored in the table itself.
type ContextLabel string

const (
	LabelPod       ContextLabel = "pod"
	LabelService   ContextLabel = "service"
	LabelNamespace ContextLabel = "namespace"
	LabelContainer ContextLabel = "container"
	LabelNode      ContextLabel = "node"
	LabelCmdline   ContextLabel = "cmdline"
)

// ContextLabels lists every supported label in display order.
var ContextLabels = []ContextLabel{
	LabelPod, LabelService, LabelNamespace, LabelContainer, LabelNode, LabelCmdline,
}

// ParseContextLabel validates a label name.
func ParseContextLabel(s string) (ContextLabel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range ContextLabels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContextLabel, s)
}

// Context holds the resolved labels of one row. A nil Context is valid and
// resolves every label as absent.
type Context map[ContextLabel]string

// Lookup returns the label value and whether it was resolved. Empty values
// count as absent.
func (c Context) Lookup(label ContextLabel) (string, bool) {
	v, ok := c[label]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
