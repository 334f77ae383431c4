package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"corelab/internal/render"
	"corelab/pkg/coretypes"
)

func newAICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Talk to the active AI provider",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Probe the active provider",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, _ []string) error {
			st := rt.core.ProviderStatus(ctx)
			return rt.out.print(cmd.OutOrStdout(), st, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, render.Status(st.Name, st.Available))
				return err
			})
		}),
	}

	var (
		system      string
		maxTokens   int
		temperature float64
		jsonMode    bool
	)
	complete := &cobra.Command{
		Use:   "complete <prompt>",
		Short: "Run a one-shot completion",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			req := coretypes.AIRequest{Prompt: args[0], SystemPrompt: system, JSON: jsonMode}
			if cmd.Flags().Changed("max-tokens") {
				req.MaxTokens = coretypes.Int(maxTokens)
			}
			if cmd.Flags().Changed("temperature") {
				req.Temperature = coretypes.Float(temperature)
			}
			resp, err := rt.core.Complete(ctx, req)
			if err != nil {
				return err
			}
			return rt.out.print(cmd.OutOrStdout(), resp, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, resp.Content)
				return err
			})
		}),
	}
	complete.Flags().StringVar(&system, "system", "", "System prompt")
	complete.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum tokens to generate")
	complete.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature")
	complete.Flags().BoolVar(&jsonMode, "json", false, "Ask the provider for a JSON object")

	extract := &cobra.Command{
		Use:   "extract <text>",
		Short: "Extract memories from text without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			mems, err := rt.core.ExtractMemories(ctx, args[0])
			if err != nil {
				return err
			}
			return rt.out.print(cmd.OutOrStdout(), mems, func(w io.Writer) error {
				if len(mems) == 0 {
					_, err := fmt.Fprintln(w, "Nothing worth remembering.")
					return err
				}
				rows := make([][]string, 0, len(mems))
				for _, m := range mems {
					rows = append(rows, []string{m.Key, truncate(m.Value, 50), strconv.Itoa(m.Importance), strconv.FormatFloat(m.Confidence, 'f', 2, 64)})
				}
				_, err := fmt.Fprintln(w, renderTable([]string{"Key", "Value", "Importance", "Confidence"}, rows))
				return err
			})
		}),
	}

	cmd.AddCommand(status, complete, extract)
	return cmd
}

func newAppsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List registered apps",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(_ context.Context, rt *runtime, cmd *cobra.Command, _ []string) error {
			infos := rt.core.ListApps()
			return rt.out.print(cmd.OutOrStdout(), infos, func(w io.Writer) error {
				rows := make([][]string, 0, len(infos))
				for _, info := range infos {
					rows = append(rows, []string{info.ID, info.Name, info.Version, info.Description})
				}
				_, err := fmt.Fprintln(w, renderTable([]string{"ID", "Name", "Version", "Description"}, rows))
				return err
			})
		}),
	}
}
