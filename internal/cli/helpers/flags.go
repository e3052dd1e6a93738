package helpers

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// AddFormatFlag registers --format/-o with shell completion over formats.
// The value is checked later by ValidateFormat, once config defaults apply.
func AddFormatFlag(cmd *cobra.Command, formatVar *string, defaultFormat OutputFormat, formats []OutputFormat) {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}

	cmd.Flags().StringVarP(formatVar, "format", "o", string(defaultFormat),
		fmt.Sprintf("Output format (%s)", strings.Join(names, ", ")))
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

// AddContextFlag adds a --context flag listing the context labels to attach.
func AddContextFlag(cmd *cobra.Command, labelsVar *[]string, defaults []string, known []string) {
	cmd.Flags().StringSliceVar(labelsVar, "context", defaults,
		fmt.Sprintf("Context labels to attach as columns (%s)", strings.Join(known, ", ")))

	_ = cmd.RegisterFlagCompletionFunc("context", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return known, cobra.ShellCompDirectiveNoFileComp
	})
}

// ValidateFormat reports an error naming the accepted formats when format
// is not one of them.
func ValidateFormat(format string, supported []OutputFormat) error {
	names := make([]string, 0, len(supported))
	for _, s := range supported {
		if format == string(s) {
			return nil
		}
		names = append(names, string(s))
	}
	return fmt.Errorf("unsupported format %q, must be one of: %s", format, strings.Join(names, ", "))
}
