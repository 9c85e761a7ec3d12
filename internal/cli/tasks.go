package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hy4ri/todoify/internal/api"
	"github.com/hy4ri/todoify/internal/tasks"
	"github.com/spf13/cobra"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and change tasks without opening the dashboard",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE:  a.runList,
	}
	list.Flags().String("filter", "all", "all, active or completed")
	list.Flags().Bool("json", false, "Print JSON instead of a table")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runShow,
	}

	add := &cobra.Command{
		Use:   "add TITLE [DESCRIPTION]",
		Short: "Create a task",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  a.runAdd,
	}
	add.Flags().Bool("done", false, "Create the task already completed")

	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runEdit,
	}
	edit.Flags().String("title", "", "New title")
	edit.Flags().String("description", "", "New description (empty clears it)")

	del := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE:    a.runDelete,
	}
	del.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	cmd.AddCommand(list, show, add, edit, del,
		a.completionCmd("done", "Mark a task completed", completionSet(true)),
		a.completionCmd("undone", "Mark a task not completed", completionSet(false)),
		a.completionCmd("toggle", "Flip a task's completion", completionToggle),
	)
	return cmd
}

// controller builds a task controller for the logged in user.
func (a *app) controller() (*tasks.Controller, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	return tasks.NewController(a.session.Client(), a.session.User().ID, tasks.WithLogger(a.logger)), nil
}

// fail drops a rejected session so the next command asks for a login.
func (a *app) fail(err error) error {
	if !tasks.IsUnauthenticated(err) {
		return describeErr(err)
	}
	if logoutErr := a.session.Logout(); logoutErr != nil {
		a.logger.Warn("failed to clear session", "error", logoutErr)
	}
	return fmt.Errorf("session expired, run 'todoify login': %w", describeErr(err))
}

func (a *app) runList(cmd *cobra.Command, args []string) error {
	filterName, _ := cmd.Flags().GetString("filter")
	asJSON, _ := cmd.Flags().GetBool("json")

	filter, err := tasks.ParseFilter(filterName)
	if err != nil {
		return err
	}

	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout())
	defer cancel()

	if err := ctrl.Load(ctx); err != nil {
		return a.fail(err)
	}
	list := filter.Apply(ctrl.Tasks())

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No tasks")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\n", t.ID, tasks.Describe(t))
	}
	return w.Flush()
}

func (a *app) runShow(cmd *cobra.Command, args []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout())
	defer cancel()

	task, err := a.session.Client().GetTask(ctx, a.session.User().ID, args[0])
	if err != nil {
		return a.fail(err)
	}
	printTask(cmd.OutOrStdout(), *task)
	return nil
}

func printTask(out io.Writer, t api.Task) {
	status := "active"
	if t.Completed {
		status = "completed"
	}
	fmt.Fprintf(out, "ID:          %s\n", t.ID)
	fmt.Fprintf(out, "Title:       %s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", t.Description)
	}
	fmt.Fprintf(out, "Status:      %s\n", status)
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Created:     %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if !t.UpdatedAt.IsZero() {
		fmt.Fprintf(out, "Updated:     %s\n", t.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

func (a *app) runAdd(cmd *cobra.Command, args []string) error {
	done, _ := cmd.Flags().GetBool("done")

	input := api.TaskInput{Title: args[0], Completed: done}
	if len(args) == 2 {
		input.Description = args[1]
	}

	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout())
	defer cancel()

	task, err := ctrl.Create(ctx, input)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", task.ID, task.Title)
	return nil
}

func (a *app) runEdit(cmd *cobra.Command, args []string) error {
	titleChanged := cmd.Flags().Changed("title")
	descChanged := cmd.Flags().Changed("description")
	if !titleChanged && !descChanged {
		return errors.New("nothing to change (use --title and/or --description)")
	}

	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout())
	defer cancel()

	current, err := a.session.Client().GetTask(ctx, ctrl.UserID(), args[0])
	if err != nil {
		return a.fail(err)
	}

	task := *current
	if titleChanged {
		task.Title, _ = cmd.Flags().GetString("title")
	}
	if descChanged {
		task.Description, _ = cmd.Flags().GetString("description")
	}

	updated, err := ctrl.Update(ctx, task)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", updated.ID, updated.Title)
	return nil
}

// completionFunc changes the completion of the task with id.
type completionFunc func(ctx context.Context, ctrl *tasks.Controller, id string) (api.Task, error)

func completionSet(completed bool) completionFunc {
	return func(ctx context.Context, ctrl *tasks.Controller, id string) (api.Task, error) {
		return ctrl.SetCompleted(ctx, id, completed)
	}
}

// completionToggle needs the current state, so it loads the list first.
func completionToggle(ctx context.Context, ctrl *tasks.Controller, id string) (api.Task, error) {
	if err := ctrl.Load(ctx); err != nil {
		return api.Task{}, err
	}
	return ctrl.ToggleComplete(ctx, id)
}

func (a *app) completionCmd(use, short string, change completionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout())
			defer cancel()

			task, err := change(ctx, ctrl, args[0])
			if errors.Is(err, tasks.ErrTaskNotFound) {
				return fmt.Errorf("task %s not found", args[0])
			}
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tasks.Describe(task))
			return nil
		},
	}
}

func (a *app) runDelete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	out := cmd.OutOrStdout()

	ctrl, err := a.controller()
	if err != nil {
		return err
	}

	loadCtx, cancelLoad := context.WithTimeout(cmd.Context(), a.timeout())
	err = ctrl.Load(loadCtx)
	cancelLoad()
	if err != nil {
		return a.fail(err)
	}

	task, ok := ctrl.Task(args[0])
	if !ok {
		return fmt.Errorf("task %s not found", args[0])
	}

	// Ask before starting the request clock.
	answer := yes
	if !yes {
		fmt.Fprintf(out, "%s\nDelete this task? [y/N]: ", tasks.Describe(task))
		response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		answer = response == "y" || response == "yes"
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout())
	defer cancel()

	err = ctrl.Delete(ctx, task.ID, func(api.Task) bool { return answer })
	switch {
	case errors.Is(err, tasks.ErrDeleteDeclined):
		fmt.Fprintln(out, "Aborted.")
		return nil
	case err != nil:
		return a.fail(err)
	}
	fmt.Fprintf(out, "Deleted task %s\n", task.ID)
	return nil
}
