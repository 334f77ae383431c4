package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"corelab/internal/ai"
	"corelab/pkg/coretypes"
)

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Record and list conversation notes",
	}

	var convContext string
	add := &cobra.Command{
		Use:   "add <person-id> <content>",
		Short: "Record a conversation; the memory app extracts memories from it",
		Args:  cobra.ExactArgs(2),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			personID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := rt.core.CreateConversation(ctx, personID, args[1], optional(cmd, "context", convContext))
			if err != nil {
				return err
			}
			return printID(cmd, rt, id, "Recorded conversation")
		}),
	}
	add.Flags().StringVar(&convContext, "context", "", "Where or how the conversation happened")

	list := &cobra.Command{
		Use:   "list <person-id>",
		Short: "List a person's conversations, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			personID, err := parseID(args[0])
			if err != nil {
				return err
			}
			convs, err := rt.core.GetConversations(ctx, personID)
			if err != nil {
				return err
			}
			return rt.out.print(cmd.OutOrStdout(), convs, func(w io.Writer) error {
				rows := make([][]string, 0, len(convs))
				for _, c := range convs {
					rows = append(rows, []string{itoa(c.ID), c.CreatedAt, truncate(deref(c.Context), 20), truncate(c.Content, 50)})
				}
				_, err := fmt.Fprintln(w, renderTable([]string{"ID", "When", "Context", "Content"}, rows))
				return err
			})
		}),
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage memories about persons",
	}

	list := &cobra.Command{
		Use:   "list <person-id>",
		Short: "List a person's memories, most important first",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			personID, err := parseID(args[0])
			if err != nil {
				return err
			}
			mems, err := rt.core.GetMemories(ctx, personID)
			if err != nil {
				return err
			}
			return rt.out.print(cmd.OutOrStdout(), mems, func(w io.Writer) error {
				return writeMemories(w, mems)
			})
		}),
	}

	var importance int
	add := &cobra.Command{
		Use:   "add <person-id> <key> <value>",
		Short: "Store a memory by hand",
		Args:  cobra.ExactArgs(3),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			personID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id, err := rt.core.CreateMemory(ctx, personID, args[1], args[2], importance)
			if err != nil {
				return err
			}
			return printID(cmd, rt, id, "Stored memory")
		}),
	}
	add.Flags().IntVar(&importance, "importance", 3,
		fmt.Sprintf("Importance from %d to %d", ai.MinImportance, ai.MaxImportance))

	cmd.AddCommand(list, add)
	return cmd
}

func writeMemories(w io.Writer, mems []coretypes.Memory) error {
	if len(mems) == 0 {
		_, err := fmt.Fprintln(w, "No memories.")
		return err
	}
	rows := make([][]string, 0, len(mems))
	for _, m := range mems {
		rows = append(rows, []string{itoa(m.ID), m.Key, truncate(m.Value, 50), strconv.Itoa(m.Importance)})
	}
	_, err := fmt.Fprintln(w, renderTable([]string{"ID", "Key", "Value", "Importance"}, rows))
	return err
}
