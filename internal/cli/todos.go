package cli

import (
	"fmt"
	"strings"

	"simdash/internal/dashboard"

	"github.com/spf13/cobra"
)

func newTodosCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todos",
		Short: "Manage your todo list",
	}

	cmd.AddCommand(
		newTodosListCmd(a),
		newTodosAddCmd(a),
		newTodosDoneCmd(a),
		newTodosEditCmd(a),
		newTodosRmCmd(a),
	)
	return cmd
}

// loadTodos signs in and returns a loaded list.
func (a *app) loadTodos(cmd *cobra.Command) (*dashboard.TodoList, error) {
	ctx := cmd.Context()
	if err := a.signIn(ctx); err != nil {
		return nil, err
	}
	l := dashboard.NewTodoList(a.client, a.log.Named("todos"), nil)
	if err := l.Load(ctx); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

func newTodosListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List todos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}
			defer l.Close()
			return renderTodos(cmd.OutOrStdout(), l.Items())
		},
	}
}

func newTodosAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task...>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}
			defer l.Close()
			if err := l.Add(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}
			return renderTodos(cmd.OutOrStdout(), l.Items())
		},
	}
}

func newTodosDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}
			defer l.Close()
			if err := l.Toggle(cmd.Context(), args[0]); err != nil {
				return err
			}
			return renderTodos(cmd.OutOrStdout(), l.Items())
		},
	}
}

func newTodosEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <task...>",
		Short: "Change a todo's text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}
			defer l.Close()
			if err := l.Edit(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			return renderTodos(cmd.OutOrStdout(), l.Items())
		},
	}
}

func newTodosRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.loadTodos(cmd)
			if err != nil {
				return err
			}
			defer l.Close()
			if err := l.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
