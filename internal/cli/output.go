package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// output writes v as JSON when --json is set and text otherwise. An empty
// text prints nothing.
func (g *globals) output(cmd *cobra.Command, v any, text string) error {
	out := cmd.OutOrStdout()

	if g.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	if text == "" {
		return nil
	}

	_, err := fmt.Fprintln(out, text)
	return err
}
