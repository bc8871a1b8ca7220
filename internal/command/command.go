// Package command turns free-text commands into engine calls.
//
// Matching is literal phrase containment plus a few regular expressions.
// Anything it cannot place gets a fallback reply; it never fails.
package command

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/nhle/tasktrack/internal/engine"
	"github.com/nhle/tasktrack/internal/filter"
	"github.com/nhle/tasktrack/internal/model"
)

// Action names what a command did.
type Action string

const (
	ActionTheme        Action = "theme"
	ActionAdd          Action = "add"
	ActionComplete     Action = "complete"
	ActionDelete       Action = "delete"
	ActionEdit         Action = "edit"
	ActionPriority     Action = "priority"
	ActionDeadline     Action = "deadline"
	ActionStart        Action = "start"
	ActionPause        Action = "pause"
	ActionResume       Action = "resume"
	ActionFilter       Action = "filter"
	ActionSort         Action = "sort"
	ActionClearFilters Action = "clear_filters"
	ActionHelp         Action = "help"
	ActionUnknown      Action = "unknown"
)

// Response is the reply to one command.
type Response struct {
	// Text is the reply shown (or spoken) to the user.
	Text   string
	Action Action

	// TaskID is set when the command acted on a task.
	TaskID string

	// Err is a failure that was recovered. Text is unaffected by it.
	Err error
}

// Dispatcher handles a single free-text command.
type Dispatcher interface {
	Dispatch(ctx context.Context, input string) Response
}

// Engine is the subset of *engine.Engine commands drive.
type Engine interface {
	Now() time.Time
	AddTask(ctx context.Context, in engine.NewTask) (model.Task, error)
	EditTask(ctx context.Context, id string, edit engine.TaskEdit) (model.Task, error)
	SetCompleted(ctx context.Context, id string, done bool) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	StartTracking(ctx context.Context, id string) (model.Task, error)
	PauseTracking(ctx context.Context, id string) (model.Task, error)
	ResumeTracking(ctx context.Context, id string) (model.Task, error)
	FindTask(query string) (model.Task, bool)
	UpdateCriteria(fn func(c *filter.Criteria)) filter.Criteria
	ClearFilters()
	SetTheme(ctx context.Context, th model.Theme) error
	ToggleTheme(ctx context.Context) (model.Theme, error)
}

var (
	addTrigger      = regexp.MustCompile(`add task|new task|create task`)
	completeTrigger = regexp.MustCompile(`complete task|mark done|finish task`)
	deleteTrigger   = regexp.MustCompile(`delete task|remove task`)
	editTrigger     = regexp.MustCompile(`edit task|update task|change task`)
	priorityTrigger = regexp.MustCompile(`set priority|change priority`)
	deadlineTrigger = regexp.MustCompile(`set deadline|add deadline`)
	startTrigger    = regexp.MustCompile(`start task|begin task`)
	pauseTrigger    = regexp.MustCompile(`pause task|stop task`)
	resumeTrigger   = regexp.MustCompile(`resume task|continue task`)

	priorityPhrase = regexp.MustCompile(`(high|medium|low) priority`)
	priorityFor    = regexp.MustCompile(`(high|medium|low)\s+priority\s+for\s+(.+)`)
	setPriority    = regexp.MustCompile(`^set (high|medium|low) priority for `)
	deadlineFor    = regexp.MustCompile(`(today|tomorrow|next week|in \d+ days?)\s+for\s+(.+)`)
)

// connectors are dropped from the end of a task text once the priority and
// date phrases have been cut out of it.
var connectors = map[string]bool{"with": true, "due": true, "by": true, "and": true}

const (
	replyUnknown  = "Sorry, I didn't understand that command. Say 'help' for available commands."
	replyShowHelp = "I'm not sure which tasks to show. Try saying 'show all tasks' or 'show active tasks'."
	replySortHelp = "I'm not sure how to sort. Try saying 'sort by priority' or 'sort by deadline'."
)

// HelpText lists the supported commands.
const HelpText = `Here are some of the available commands:
Task Management:
- Add task [description] with [priority] priority due [deadline]
- Complete task [description]
- Delete task [description]
- Edit task [old description] to [new description]
- Set [priority] priority for [task description]
- Set deadline [date] for [task description]
Time Tracking:
- Start task [description]
- Pause task [description]
- Resume task [description]
Filtering and Sorting:
- Show all tasks
- Show active tasks
- Show completed tasks
- Show high priority tasks
- Show tasks due today
- Show tasks in progress
- Sort by priority
- Sort by deadline
- Clear filters
Theme:
- Switch theme
- Dark mode
- Light mode`

// RegexDispatcher implements Dispatcher with phrase matching.
type RegexDispatcher struct {
	eng    Engine
	logger *log.Logger
}

// NewRegexDispatcher returns a dispatcher driving eng. A nil logger uses the
// standard logger.
func NewRegexDispatcher(eng Engine, logger *log.Logger) *RegexDispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &RegexDispatcher{eng: eng, logger: logger}
}

// Dispatch matches input against the grammar in a fixed order; the first
// matching command wins.
func (d *RegexDispatcher) Dispatch(ctx context.Context, input string) Response {
	cmd := strings.ToLower(strings.TrimSpace(input))

	var resp Response
	switch {
	case has(cmd, "switch theme", "change theme"):
		resp = d.toggleTheme(ctx)
	case has(cmd, "dark mode"):
		resp = d.setTheme(ctx, model.ThemeDark, "Dark mode activated")
	case has(cmd, "light mode"):
		resp = d.setTheme(ctx, model.ThemeLight, "Light mode activated")
	case has(cmd, "add task", "new task", "create task"):
		resp = d.add(ctx, cmd)
	case has(cmd, "complete task", "mark done", "finish task"):
		resp = d.complete(ctx, cutFirst(cmd, completeTrigger))
	case has(cmd, "delete task", "remove task"):
		resp = d.delete(ctx, cutFirst(cmd, deleteTrigger))
	case has(cmd, "edit task", "update task", "change task"):
		resp = d.edit(ctx, cutFirst(cmd, editTrigger))
	case has(cmd, "set priority", "change priority") || setPriority.MatchString(cmd):
		resp = d.priority(ctx, cutFirst(cmd, priorityTrigger))
	case has(cmd, "set deadline", "add deadline"):
		resp = d.deadline(ctx, cutFirst(cmd, deadlineTrigger))
	case has(cmd, "start task", "begin task"):
		resp = d.track(ctx, ActionStart, cutFirst(cmd, startTrigger))
	case has(cmd, "pause task", "stop task"):
		resp = d.track(ctx, ActionPause, cutFirst(cmd, pauseTrigger))
	case has(cmd, "resume task", "continue task"):
		resp = d.track(ctx, ActionResume, cutFirst(cmd, resumeTrigger))
	case has(cmd, "clear filters", "reset filters"):
		d.eng.ClearFilters()
		resp = Response{Text: "Cleared all filters", Action: ActionClearFilters}
	case has(cmd, "show", "filter"):
		resp = d.show(cmd)
	case has(cmd, "sort"):
		resp = d.sort(cmd)
	case has(cmd, "help", "what can you do"):
		resp = Response{Text: HelpText, Action: ActionHelp}
	default:
		resp = Response{Text: replyUnknown, Action: ActionUnknown}
	}

	if resp.Err != nil {
		d.logger.Printf("command %q: %v", cmd, resp.Err)
	}
	return resp
}

func (d *RegexDispatcher) toggleTheme(ctx context.Context) Response {
	th, err := d.eng.ToggleTheme(ctx)
	return Response{Text: fmt.Sprintf("Switched to %s theme", th), Action: ActionTheme, Err: err}
}

func (d *RegexDispatcher) setTheme(ctx context.Context, th model.Theme, reply string) Response {
	err := d.eng.SetTheme(ctx, th)
	return Response{Text: reply, Action: ActionTheme, Err: err}
}

func (d *RegexDispatcher) add(ctx context.Context, cmd string) Response {
	text := cutFirst(cmd, addTrigger)
	if text == "" {
		return Response{Text: "Please specify a task to add", Action: ActionAdd}
	}

	in := engine.NewTask{Priority: model.PriorityMedium}
	if m := priorityPhrase.FindStringSubmatch(text); m != nil {
		in.Priority = model.Priority(m[1])
		text = cutFirst(text, priorityPhrase)
	}
	if phrase := datePhrase.FindString(text); phrase != "" {
		if deadline, ok := ResolveRelativeDate(phrase, d.eng.Now()); ok {
			in.Deadline = &deadline
		}
		text = cutFirst(text, datePhrase)
	}
	in.Text = tidy(text)

	if in.Text == "" {
		return Response{Text: "Please specify a task to add", Action: ActionAdd}
	}

	task, err := d.eng.AddTask(ctx, in)
	reply := fmt.Sprintf("Added new %s priority task: %s", in.Priority, in.Text)
	if in.Deadline != nil {
		reply += " with deadline"
	}
	return Response{Text: reply, Action: ActionAdd, TaskID: task.ID, Err: err}
}

func (d *RegexDispatcher) complete(ctx context.Context, query string) Response {
	resp := Response{Text: "Marked task as complete: " + query, Action: ActionComplete}
	resp.TaskID, resp.Err = d.withTask(query, func(id string) error {
		_, err := d.eng.SetCompleted(ctx, id, true)
		return err
	})
	return resp
}

func (d *RegexDispatcher) delete(ctx context.Context, query string) Response {
	resp := Response{Text: "Deleted task: " + query, Action: ActionDelete}
	resp.TaskID, resp.Err = d.withTask(query, func(id string) error {
		return d.eng.DeleteTask(ctx, id)
	})
	return resp
}

func (d *RegexDispatcher) edit(ctx context.Context, rest string) Response {
	query, newText, ok := strings.Cut(rest, " to ")
	query, newText = strings.TrimSpace(query), strings.TrimSpace(newText)
	if !ok {
		return Response{
			Text:   "Please specify what to edit the task to. For example, 'edit task buy milk to buy almond milk'",
			Action: ActionEdit,
		}
	}

	resp := Response{Text: fmt.Sprintf("Updated task: %s to %s", query, newText), Action: ActionEdit}
	resp.TaskID, resp.Err = d.withTask(query, func(id string) error {
		_, err := d.eng.EditTask(ctx, id, engine.TaskEdit{Text: &newText})
		return err
	})
	return resp
}

func (d *RegexDispatcher) priority(ctx context.Context, rest string) Response {
	m := priorityFor.FindStringSubmatch(rest)
	if m == nil {
		return Response{
			Text:   "Please specify the priority and task. For example, 'set high priority for buy groceries'",
			Action: ActionPriority,
		}
	}
	p, query := model.Priority(m[1]), strings.TrimSpace(m[2])

	resp := Response{Text: fmt.Sprintf("Set %s priority for task: %s", p, query), Action: ActionPriority}
	resp.TaskID, resp.Err = d.withTask(query, func(id string) error {
		_, err := d.eng.EditTask(ctx, id, engine.TaskEdit{Priority: &p})
		return err
	})
	return resp
}

func (d *RegexDispatcher) deadline(ctx context.Context, rest string) Response {
	usage := Response{
		Text:   "Please specify the deadline and task. For example, 'set deadline tomorrow for buy groceries'",
		Action: ActionDeadline,
	}
	m := deadlineFor.FindStringSubmatch(rest)
	if m == nil {
		return usage
	}
	phrase, query := m[1], strings.TrimSpace(m[2])
	deadline, ok := ResolveRelativeDate(phrase, d.eng.Now())
	if !ok {
		return usage
	}

	resp := Response{Text: fmt.Sprintf("Set deadline to %s for task: %s", phrase, query), Action: ActionDeadline}
	resp.TaskID, resp.Err = d.withTask(query, func(id string) error {
		_, err := d.eng.EditTask(ctx, id, engine.TaskEdit{Deadline: &deadline})
		return err
	})
	return resp
}

func (d *RegexDispatcher) track(ctx context.Context, action Action, query string) Response {
	var (
		verb string
		fn   func(context.Context, string) (model.Task, error)
	)
	switch action {
	case ActionStart:
		verb, fn = "Started", d.eng.StartTracking
	case ActionPause:
		verb, fn = "Paused", d.eng.PauseTracking
	default:
		verb, fn = "Resumed", d.eng.ResumeTracking
	}

	if query == "" {
		return Response{Text: fmt.Sprintf("Please specify a task to %s", action), Action: action}
	}

	resp := Response{Text: fmt.Sprintf("%s time tracking for task: %s", verb, query), Action: action}
	resp.TaskID, resp.Err = d.withTask(query, func(id string) error {
		_, err := fn(ctx, id)
		return err
	})
	return resp
}

func (d *RegexDispatcher) show(cmd string) Response {
	var (
		reply string
		apply func(c *filter.Criteria)
	)

	switch {
	case has(cmd, "all tasks"):
		reply, apply = "Showing all tasks", func(c *filter.Criteria) { c.Status = filter.StatusAll }
	case has(cmd, "active tasks"):
		reply, apply = "Showing active tasks", func(c *filter.Criteria) { c.Status = filter.StatusActive }
	case has(cmd, "completed tasks"):
		reply, apply = "Showing completed tasks", func(c *filter.Criteria) { c.Status = filter.StatusCompleted }
	case has(cmd, "high priority"):
		reply, apply = "Showing high priority tasks", func(c *filter.Criteria) { c.Priority = model.PriorityHigh }
	case has(cmd, "medium priority"):
		reply, apply = "Showing medium priority tasks", func(c *filter.Criteria) { c.Priority = model.PriorityMedium }
	case has(cmd, "low priority"):
		reply, apply = "Showing low priority tasks", func(c *filter.Criteria) { c.Priority = model.PriorityLow }
	case has(cmd, "due today"):
		reply, apply = "Showing tasks due today", func(c *filter.Criteria) { c.Date = filter.DateToday }
	case has(cmd, "due this week"):
		reply, apply = "Showing tasks due this week", func(c *filter.Criteria) { c.Date = filter.DateThisWeek }
	case has(cmd, "overdue"):
		reply, apply = "Showing overdue tasks", func(c *filter.Criteria) { c.Date = filter.DateOverdue }
	case has(cmd, "in progress"):
		reply, apply = "Showing tasks in progress", func(c *filter.Criteria) { c.Tracking = model.TrackingInProgress }
	case has(cmd, "paused"):
		reply, apply = "Showing paused tasks", func(c *filter.Criteria) { c.Tracking = model.TrackingPaused }
	case has(cmd, "not started"):
		reply, apply = "Showing tasks not started", func(c *filter.Criteria) { c.Tracking = model.TrackingNotStarted }
	default:
		return Response{Text: replyShowHelp, Action: ActionFilter}
	}

	d.eng.UpdateCriteria(apply)
	return Response{Text: reply, Action: ActionFilter}
}

func (d *RegexDispatcher) sort(cmd string) Response {
	var (
		reply string
		opt   filter.SortOption
	)

	switch {
	case has(cmd, "by priority"):
		reply, opt = "Sorting tasks by priority", filter.SortPriority
	case has(cmd, "by deadline"):
		reply, opt = "Sorting tasks by deadline", filter.SortDeadline
	case has(cmd, "by newest"):
		reply, opt = "Sorting tasks by newest first", filter.SortNewest
	case has(cmd, "by oldest"):
		reply, opt = "Sorting tasks by oldest first", filter.SortOldest
	case has(cmd, "by time spent"):
		reply, opt = "Sorting tasks by time spent", filter.SortTimeSpent
	default:
		return Response{Text: replySortHelp, Action: ActionSort}
	}

	d.eng.UpdateCriteria(func(c *filter.Criteria) { c.Sort = opt })
	return Response{Text: reply, Action: ActionSort}
}

// withTask resolves query to the first matching task and runs fn on it.
func (d *RegexDispatcher) withTask(query string, fn func(id string) error) (string, error) {
	task, ok := d.eng.FindTask(query)
	if !ok {
		return "", fmt.Errorf("%w: no task matching %q", engine.ErrNotFound, query)
	}
	return task.ID, fn(task.ID)
}

func has(s string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// cutFirst removes the first match of re from s and trims the result.
func cutFirst(s string, re *regexp.Regexp) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(s[:loc[0]] + s[loc[1]:])
}

// tidy collapses runs of spaces and drops dangling connectors at the end.
func tidy(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 && connectors[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
