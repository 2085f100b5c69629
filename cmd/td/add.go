package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jfeld/taskdeck/internal/api"
	"github.com/jfeld/taskdeck/internal/cache/delta"
	"github.com/jfeld/taskdeck/internal/model"
)

var addFlags struct {
	project  string
	section  string
	parent   string
	priority int
	due      string
	labels   []string
}

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Create a task",
	Long: `Create a task on the service.

The created task is mirrored into the local cache immediately, so a
following 'td tasks' in the same session sees it without waiting for
the next sync.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := setup()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := a.requireToken(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		req := api.AddTaskRequest{
			Content:   strings.Join(args, " "),
			ProjectID: addFlags.project,
			SectionID: addFlags.section,
			ParentID:  addFlags.parent,
			Priority:  addFlags.priority,
			Labels:    addFlags.labels,
		}
		if addFlags.due != "" {
			date, err := resolveDueDate(addFlags.due)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			req.DueDate = date
		}

		ctx := cmd.Context()
		row, err := a.client.AddTask(ctx, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating task: %v\n", err)
			os.Exit(1)
		}

		// Optimistic write-through: mirror the new task, and mark tasks
		// dirty so the next read still resyncs properly.
		task := delta.MapTask(row)
		a.engine.UpsertLocalTask(ctx, task)
		a.engine.MarkDirty(ctx, model.KindTasks)

		fmt.Printf("Created %s: %s\n", task.ID, task.Content)
	},
}

func init() {
	addCmd.Flags().StringVar(&addFlags.project, "project", "", "project id")
	addCmd.Flags().StringVar(&addFlags.section, "section", "", "section id")
	addCmd.Flags().StringVar(&addFlags.parent, "parent", "", "parent task id")
	addCmd.Flags().IntVar(&addFlags.priority, "priority", 0, "priority (1-4)")
	addCmd.Flags().StringVar(&addFlags.due, "due", "", "due date (natural language or YYYY-MM-DD)")
	addCmd.Flags().StringSliceVar(&addFlags.labels, "label", nil, "label (repeatable)")

	rootCmd.AddCommand(addCmd)
}
