package helpers

import (
	"github.com/spf13/pflag"
)

// TimeFlags holds the raw time range flags. Values are handed to the
// query platform unparsed; it owns validation and the notion of "now".
type TimeFlags struct {
	Since string
	To    string
}

// AddFlags adds time range flags to a FlagSet.
func (f *TimeFlags) AddFlags(flags *pflag.FlagSet, defaultSince string) {
	flags.StringVar(&f.Since, "since", defaultSince, "Window start: relative duration (-30s, 5m), RFC3339 time or 'now'")
	flags.StringVar(&f.To, "to", "", "Window end: relative duration, RFC3339 time or 'now' (default now)")
}
