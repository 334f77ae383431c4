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

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id '%s': %w", s, coretypes.ErrValidation)
	}
	return id, nil
}

func optional(cmd *cobra.Command, flag, value string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	return &value
}

func newPersonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage persons",
	}
	cmd.AddCommand(newPersonListCmd(), newPersonAddCmd(), newPersonUpdateCmd(), newPersonShowCmd())
	return cmd
}

func newPersonListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active persons",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, _ []string) error {
			persons, err := rt.core.GetPersons(ctx)
			if err != nil {
				return err
			}
			return rt.out.print(cmd.OutOrStdout(), persons, func(w io.Writer) error {
				if len(persons) == 0 {
					_, err := fmt.Fprintln(w, "No persons yet. Add one with: corelab person add <name>")
					return err
				}
				rows := make([][]string, 0, len(persons))
				for _, person := range persons {
					rows = append(rows, []string{itoa(person.ID), person.Name, truncate(deref(person.Notes), 40), person.CreatedAt})
				}
				_, err := fmt.Fprintln(w, renderTable([]string{"ID", "Name", "Notes", "Added"}, rows))
				return err
			})
		}),
	}
}

func newPersonAddCmd() *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a person",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			id, err := rt.core.CreatePerson(ctx, args[0], optional(cmd, "notes", notes))
			if err != nil {
				return err
			}
			return printID(cmd, rt, id, "Added person")
		}),
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	return cmd
}

func newPersonUpdateCmd() *cobra.Command {
	var (
		name   string
		notes  string
		active bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a person; unchanged flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := rt.core.GetPerson(ctx, id)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") {
				name = current.Name
			}
			newNotes := current.Notes
			if cmd.Flags().Changed("notes") {
				newNotes = &notes
			}
			if !cmd.Flags().Changed("active") {
				active = current.IsActive
			}
			if err := rt.core.UpdatePerson(ctx, id, name, newNotes, active); err != nil {
				return err
			}
			return printID(cmd, rt, id, "Updated person")
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")
	cmd.Flags().BoolVar(&active, "active", true, "Whether the person is active")
	return cmd
}

type personProfile struct {
	Person        coretypes.Person         `json:"person" yaml:"person"`
	Conversations []coretypes.Conversation `json:"conversations" yaml:"conversations"`
	Memories      []coretypes.Memory       `json:"memories" yaml:"memories"`
}

func newPersonShowCmd() *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a person with their memories and conversations",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			profile := personProfile{}
			if profile.Person, err = rt.core.GetPerson(ctx, id); err != nil {
				return err
			}
			if profile.Conversations, err = rt.core.GetConversations(ctx, id); err != nil {
				return err
			}
			if profile.Memories, err = rt.core.GetMemories(ctx, id); err != nil {
				return err
			}

			return rt.out.print(cmd.OutOrStdout(), profile, func(w io.Writer) error {
				r, err := render.NewRenderer(style, 0)
				if err != nil {
					return err
				}
				out, err := r.Person(profile.Person, profile.Conversations, profile.Memories)
				if err != nil {
					return err
				}
				_, err = io.WriteString(w, out)
				return err
			})
		}),
	}
	cmd.Flags().StringVar(&style, "style", "auto", "Markdown style (auto|dark|light|notty|ascii)")
	return cmd
}

func printID(cmd *cobra.Command, rt *runtime, id int64, what string) error {
	return rt.out.print(cmd.OutOrStdout(), map[string]int64{"id": id}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s #%d\n", what, id)
		return err
	})
}
