package main

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jfeld/taskdeck/internal/cache/delta"
	"github.com/jfeld/taskdeck/internal/cache/store"
	"github.com/jfeld/taskdeck/internal/model"
)

var tasksFlags struct {
	project    string
	section    string
	label      string
	due        string
	overdue    bool
	priority   int
	assignee   string
	unassigned bool
	workspace  string
	personal   bool
	all        bool
	limit      int
	cursor     string
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks",
	Long: `List tasks from the local cache, syncing first if the cache is stale.

Due dates accept natural language ("today", "next friday") or a plain
YYYY-MM-DD date. Without a usable cache the list is fetched from the
service directly.`,
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

		filter := store.TaskFilter{
			ProjectID:        tasksFlags.project,
			SectionID:        tasksFlags.section,
			Label:            tasksFlags.label,
			Overdue:          tasksFlags.overdue,
			AssigneeID:       tasksFlags.assignee,
			Unassigned:       tasksFlags.unassigned,
			WorkspaceID:      tasksFlags.workspace,
			PersonalOnly:     tasksFlags.personal,
			IncludeCompleted: tasksFlags.all,
			Limit:            tasksFlags.limit,
			Cursor:           tasksFlags.cursor,
		}
		if tasksFlags.priority > 0 {
			filter.Priority = &tasksFlags.priority
		}
		if tasksFlags.due != "" {
			date, err := resolveDueDate(tasksFlags.due)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			filter.DueDate = date
		}

		ctx := cmd.Context()
		st, err := a.engine.EnsureFresh(ctx, model.KindTasks, model.KindProjects)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var tasks []model.Task
		next := ""
		if st != nil {
			tasks, next, err = st.QueryTasks(ctx, filter)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		} else {
			// No cache: read the service directly and filter client-side
			// on the cheap predicates.
			rows, err := a.client.ListTasks(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			for _, row := range rows {
				task := delta.MapTask(row)
				if matchesDirect(task, filter) {
					tasks = append(tasks, task)
				}
			}
		}

		printTasks(tasks)
		if next != "" {
			fmt.Printf("\n(more results: --cursor %s)\n", next)
		}
	},
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// resolveDueDate turns a --due argument into a calendar date: either a
// literal YYYY-MM-DD, or natural language parsed relative to now.
func resolveDueDate(input string) (string, error) {
	if dateRe.MatchString(input) {
		return input, nil
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(input, time.Now())
	if err != nil || r == nil {
		return "", fmt.Errorf("cannot parse due date %q", input)
	}
	return r.Time.Format("2006-01-02"), nil
}

// matchesDirect applies the subset of the task filter that makes sense
// without the project table: the remote fallback path has no workspace
// join to lean on.
func matchesDirect(task model.Task, f store.TaskFilter) bool {
	if !f.IncludeCompleted && task.Checked {
		return false
	}
	if f.ProjectID != "" && task.ProjectID != f.ProjectID {
		return false
	}
	if f.SectionID != "" && task.SectionID != f.SectionID {
		return false
	}
	if f.Priority != nil && task.Priority != *f.Priority {
		return false
	}
	if f.DueDate != "" && task.DueDate != f.DueDate {
		return false
	}
	if f.Overdue && (task.DueDate == "" || task.DueDate >= time.Now().Format("2006-01-02")) {
		return false
	}
	if f.AssigneeID != "" && task.AssigneeID != f.AssigneeID {
		return false
	}
	if f.Unassigned && task.AssigneeID != "" {
		return false
	}
	return true
}

func printTasks(tasks []model.Task) {
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return
	}

	width := 0
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	for _, task := range tasks {
		line := fmt.Sprintf("%s  P%d  %s", task.ID, task.Priority, task.Content)
		if task.DueDate != "" {
			line += "  (due " + task.DueDate + ")"
		}
		if width > 3 && len(line) > width {
			line = line[:width-3] + "..."
		}
		fmt.Println(line)
	}
}

func init() {
	tasksCmd.Flags().StringVar(&tasksFlags.project, "project", "", "filter by project id")
	tasksCmd.Flags().StringVar(&tasksFlags.section, "section", "", "filter by section id")
	tasksCmd.Flags().StringVar(&tasksFlags.label, "label", "", "filter by label name")
	tasksCmd.Flags().StringVar(&tasksFlags.due, "due", "", "filter by due date (natural language or YYYY-MM-DD)")
	tasksCmd.Flags().BoolVar(&tasksFlags.overdue, "overdue", false, "only overdue tasks")
	tasksCmd.Flags().IntVar(&tasksFlags.priority, "priority", 0, "filter by priority (1-4)")
	tasksCmd.Flags().StringVar(&tasksFlags.assignee, "assignee", "", "filter by assignee id")
	tasksCmd.Flags().BoolVar(&tasksFlags.unassigned, "unassigned", false, "only unassigned tasks")
	tasksCmd.Flags().StringVar(&tasksFlags.workspace, "workspace", "", "only tasks in the given workspace")
	tasksCmd.Flags().BoolVar(&tasksFlags.personal, "personal", false, "only tasks in personal projects")
	tasksCmd.Flags().BoolVar(&tasksFlags.all, "all", false, "include completed tasks")
	tasksCmd.Flags().IntVar(&tasksFlags.limit, "limit", 0, "page size (0 = everything)")
	tasksCmd.Flags().StringVar(&tasksFlags.cursor, "cursor", "", "continuation cursor from a previous page")

	rootCmd.AddCommand(tasksCmd)
}
