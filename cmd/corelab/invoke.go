package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newInvokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <command> [json-args]",
		Short: "Run any command by name with JSON arguments",
		Long: `Run a command through the same bridge the HTTP API uses, e.g.

  corelab invoke create_person '{"name":"Ada"}'
  corelab invoke get_memories '{"person_id":1}'

Run "corelab invoke list" to see every command.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			if args[0] == "list" {
				all := rt.commands.GetAll()
				names := make(map[string]string, len(all))
				for _, c := range all {
					names[c.Name()] = c.Description()
				}
				return rt.out.print(cmd.OutOrStdout(), names, func(w io.Writer) error {
					for _, c := range all {
						if _, err := fmt.Fprintf(w, "%-20s %s\n", c.Name(), c.Description()); err != nil {
							return err
						}
					}
					return nil
				})
			}

			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}
			result, err := rt.commands.Execute(ctx, args[0], raw)
			if err != nil {
				return err
			}
			if result == nil {
				return nil
			}
			return rt.out.print(cmd.OutOrStdout(), result, nil)
		}),
	}
}
