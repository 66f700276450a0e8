package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/damwatch/taskdesk/internal/client"
	"github.com/damwatch/taskdesk/internal/collaboration"
	"github.com/damwatch/taskdesk/internal/disposition"
	"github.com/damwatch/taskdesk/internal/task"
	"github.com/damwatch/taskdesk/internal/user"
	"github.com/damwatch/taskdesk/internal/verification"
	"github.com/damwatch/taskdesk/pkg/color"
)

var (
	app = kingpin.New("taskdesk", "Task and collaboration desk for dam safety staff")

	serverURL = app.Flag("server", "Server base URL").Envar("TASKDESK_SERVER_URL").Default("http://localhost:3200").String()
	apiKey    = app.Flag("api-key", "Shared API key").Envar("TASKDESK_API_KEY").Required().String()
	actorID   = app.Flag("as", "Acting user id").Envar("TASKDESK_ACTOR").String()
	timeout   = app.Flag("timeout", "Request timeout").Default("30s").Duration()

	// User commands
	userCmd           = app.Command("user", "Manage users")
	whoamiCmd         = userCmd.Command("whoami", "Show the acting user")
	userListCmd       = userCmd.Command("list", "List users")
	userListAll       = userListCmd.Flag("all", "Include inactive users").Bool()
	userAddCmd        = userCmd.Command("add", "Create a user")
	userAddUsername   = userAddCmd.Arg("username", "Login name").Required().String()
	userAddName       = userAddCmd.Arg("name", "Display name").Required().String()
	userAddRole       = userAddCmd.Flag("role", "Role").Default(string(user.RoleUser)).Enum(string(user.RoleUser), string(user.RoleAdmin))
	userAddDept       = userAddCmd.Flag("department", "Department").String()
	userDeactivateCmd = userCmd.Command("deactivate", "Deactivate a user")
	userDeactivateID  = userDeactivateCmd.Arg("id", "User ID").Required().String()
	userActivateCmd   = userCmd.Command("activate", "Activate a user")
	userActivateID    = userActivateCmd.Arg("id", "User ID").Required().String()

	// Direct task commands
	taskCmd           = app.Command("task", "Direct tasks")
	taskSendCmd       = taskCmd.Command("send", "Send a task to a user")
	taskSendTo        = taskSendCmd.Arg("receiver", "Receiver user id").Required().String()
	taskSendTitle     = taskSendCmd.Arg("title", "Task title").Required().String()
	taskSendDesc      = taskSendCmd.Flag("description", "Description").Short('d').String()
	taskSendPriority  = taskSendCmd.Flag("priority", "Priority").Default(string(task.PriorityMedium)).String()
	taskSendDeadline  = taskSendCmd.Flag("deadline", "Deadline (RFC 3339)").String()
	taskListCmd       = taskCmd.Command("list", "List my tasks")
	taskListStatus    = taskListCmd.Flag("status", "Filter by status").String()
	taskShowCmd       = taskCmd.Command("show", "Show a task")
	taskShowID        = taskShowCmd.Arg("id", "Task ID").Required().String()
	taskAcceptCmd     = taskCmd.Command("accept", "Accept a pending task")
	taskAcceptID      = taskAcceptCmd.Arg("id", "Task ID").Required().String()
	taskDeclineCmd    = taskCmd.Command("decline", "Decline a pending task")
	taskDeclineID     = taskDeclineCmd.Arg("id", "Task ID").Required().String()
	taskCompleteCmd   = taskCmd.Command("complete", "Complete a task")
	taskCompleteID    = taskCompleteCmd.Arg("id", "Task ID").Required().String()
	taskResumeCmd     = taskCmd.Command("resume", "Resume work after a revision request")
	taskResumeID      = taskResumeCmd.Arg("id", "Task ID").Required().String()
	taskReviseCmd     = taskCmd.Command("revise", "Ask the receiver for a revision")
	taskReviseID      = taskReviseCmd.Arg("id", "Task ID").Required().String()
	taskReviseReason  = taskReviseCmd.Arg("reason", "What needs to change").Required().String()
	taskProgressCmd   = taskCmd.Command("progress", "Report progress")
	taskProgressID    = taskProgressCmd.Arg("id", "Task ID").Required().String()
	taskProgressValue = taskProgressCmd.Arg("percent", "0-100").Required().Int()
	taskDeleteCmd     = taskCmd.Command("delete", "Delete a task")
	taskDeleteID      = taskDeleteCmd.Arg("id", "Task ID").Required().String()

	// Disposition commands
	dispCmd            = app.Command("disposition", "Recurring disposition tasks")
	dispAddCmd         = dispCmd.Command("add", "Assign a disposition")
	dispAddTitle       = dispAddCmd.Arg("title", "Title").Required().String()
	dispAddGivers      = dispAddCmd.Flag("giver", "Giver user id (repeatable)").Required().Strings()
	dispAddReceivers   = dispAddCmd.Flag("receiver", "Receiver user id (repeatable)").Required().Strings()
	dispAddPeriod      = dispAddCmd.Flag("period", "harian, mingguan or bulanan").Default(string(disposition.PeriodWeekly)).String()
	dispAddLink        = dispAddCmd.Flag("link", "Reference link").String()
	dispListCmd        = dispCmd.Command("list", "List my dispositions")
	dispCompleteCmd    = dispCmd.Command("complete", "Mark a disposition completed")
	dispCompleteID     = dispCompleteCmd.Arg("id", "Disposition ID").Required().String()
	dispToggleCmd      = dispCmd.Command("toggle", "Toggle the active flag")
	dispToggleID       = dispToggleCmd.Arg("id", "Disposition ID").Required().String()
	dispResubmitCmd    = dispCmd.Command("resubmit", "Resubmit after a revision")
	dispResubmitID     = dispResubmitCmd.Arg("id", "Disposition ID").Required().String()
	dispVerifyCmd      = dispCmd.Command("verify", "Approve or send back a completed disposition")
	dispVerifyID       = dispVerifyCmd.Arg("id", "Disposition ID").Required().String()
	dispVerifyRevision = dispVerifyCmd.Flag("revision", "Request a revision with this note").String()

	// Collaboration commands
	collabCmd            = app.Command("collab", "Collaboration tasks")
	collabCreateCmd      = collabCmd.Command("create", "Start a collaboration")
	collabCreateTitle    = collabCreateCmd.Arg("title", "Title").Required().String()
	collabCreateInvite   = collabCreateCmd.Flag("invite", "Invitee user id (repeatable)").Strings()
	collabCreateUrgent   = collabCreateCmd.Flag("urgent", "Mark as urgent").Bool()
	collabListCmd        = collabCmd.Command("list", "List my collaborations")
	collabShowCmd        = collabCmd.Command("show", "Show a collaboration with its subtasks")
	collabShowID         = collabShowCmd.Arg("id", "Collaboration ID").Required().String()
	collabInviteCmd      = collabCmd.Command("invite", "Invite a member")
	collabInviteID       = collabInviteCmd.Arg("id", "Collaboration ID").Required().String()
	collabInviteUser     = collabInviteCmd.Arg("user", "User id").Required().String()
	collabJoinCmd        = collabCmd.Command("join", "Accept an invitation")
	collabJoinID         = collabJoinCmd.Arg("id", "Collaboration ID").Required().String()
	collabLeaveCmd       = collabCmd.Command("decline", "Decline an invitation")
	collabLeaveID        = collabLeaveCmd.Arg("id", "Collaboration ID").Required().String()
	collabSubtaskCmd     = collabCmd.Command("subtask", "Add a subtask")
	collabSubtaskID      = collabSubtaskCmd.Arg("id", "Collaboration ID").Required().String()
	collabSubtaskTitle   = collabSubtaskCmd.Arg("title", "Subtask title").Required().String()
	collabSubtaskAssign  = collabSubtaskCmd.Flag("assign", "Assignee user id (repeatable)").Strings()
	collabMoveCmd        = collabCmd.Command("move", "Move a subtask")
	collabMoveID         = collabMoveCmd.Arg("id", "Collaboration ID").Required().String()
	collabMoveSubtask    = collabMoveCmd.Arg("subtask", "Subtask ID").Required().String()
	collabMoveStatus     = collabMoveCmd.Arg("status", "todo, in-progress or done").Required().String()
	collabCompleteCmd    = collabCmd.Command("complete", "Complete a collaboration")
	collabCompleteID     = collabCompleteCmd.Arg("id", "Collaboration ID").Required().String()
	collabVerifyCmd      = collabCmd.Command("verify", "Approve or send back a completed collaboration")
	collabVerifyID       = collabVerifyCmd.Arg("id", "Collaboration ID").Required().String()
	collabVerifyRevision = collabVerifyCmd.Flag("revision", "Request a revision with this note").String()

	// Notification commands
	inboxCmd     = app.Command("inbox", "Show my notifications")
	inboxUnread  = inboxCmd.Flag("unread", "Only unread").Bool()
	inboxReadAll = app.Command("read-all", "Mark all notifications as read")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	color.Configure()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	c := client.New(*serverURL, *apiKey, *actorID)
	if err := run(ctx, c, command); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func decision(note string) verification.Decision {
	if note != "" {
		return verification.DecisionRequestRevision
	}
	return verification.DecisionApprove
}

func run(ctx context.Context, c *client.Client, command string) error {
	switch command {
	case whoamiCmd.FullCommand():
		u, err := c.WhoAmI(ctx)
		if err != nil {
			return err
		}
		printUsers([]*user.User{u})
	case userListCmd.FullCommand():
		users, err := c.ListUsers(ctx, *userListAll)
		if err != nil {
			return err
		}
		printUsers(users)
	case userAddCmd.FullCommand():
		u, err := c.CreateUser(ctx, &user.CreateUserRequest{
			Username:   *userAddUsername,
			Name:       *userAddName,
			Role:       user.Role(*userAddRole),
			Department: *userAddDept,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created user %s (%s)\n", color.User(u.Name), u.ID)
	case userDeactivateCmd.FullCommand(), userActivateCmd.FullCommand():
		id, active := *userDeactivateID, false
		if command == userActivateCmd.FullCommand() {
			id, active = *userActivateID, true
		}
		u, err := c.SetUserActive(ctx, id, active)
		if err != nil {
			return err
		}
		printUsers([]*user.User{u})

	case taskSendCmd.FullCommand():
		req := &task.CreateTaskRequest{
			ReceiverID:  *taskSendTo,
			Title:       *taskSendTitle,
			Description: *taskSendDesc,
			Priority:    task.Priority(*taskSendPriority),
		}
		if *taskSendDeadline != "" {
			d, err := time.Parse(time.RFC3339, *taskSendDeadline)
			if err != nil {
				return fmt.Errorf("invalid deadline: %w", err)
			}
			req.Deadline = &d
		}
		t, err := c.CreateTask(ctx, req)
		if err != nil {
			return err
		}
		printTasks([]*task.Task{t})
	case taskListCmd.FullCommand():
		res, err := c.ListTasks(ctx, &task.ListTasksRequest{UserID: *actorID, Status: task.Status(*taskListStatus)})
		if err != nil {
			return err
		}
		printTasks(res.Tasks)
	case taskShowCmd.FullCommand():
		t, err := c.GetTask(ctx, *taskShowID)
		if err != nil {
			return err
		}
		printTask(t)
	case taskAcceptCmd.FullCommand():
		return taskAction(ctx, c, "AcceptTask", *taskAcceptID)
	case taskDeclineCmd.FullCommand():
		return taskAction(ctx, c, "DeclineTask", *taskDeclineID)
	case taskCompleteCmd.FullCommand():
		return taskAction(ctx, c, "CompleteTask", *taskCompleteID)
	case taskResumeCmd.FullCommand():
		return taskAction(ctx, c, "ResumeTask", *taskResumeID)
	case taskReviseCmd.FullCommand():
		t, err := c.RequestRevision(ctx, *taskReviseID, *taskReviseReason)
		if err != nil {
			return err
		}
		printTasks([]*task.Task{t})
	case taskProgressCmd.FullCommand():
		t, err := c.UpdateProgress(ctx, *taskProgressID, *taskProgressValue)
		if err != nil {
			return err
		}
		printTasks([]*task.Task{t})
	case taskDeleteCmd.FullCommand():
		if err := c.DeleteTask(ctx, *taskDeleteID); err != nil {
			return err
		}
		fmt.Println("deleted", *taskDeleteID)

	case dispAddCmd.FullCommand():
		d, err := c.AddDisposition(ctx, disposition.DispositionFields{
			Title:       *dispAddTitle,
			GiverIDs:    *dispAddGivers,
			ReceiverIDs: *dispAddReceivers,
			Period:      disposition.Period(*dispAddPeriod),
			Link:        *dispAddLink,
		})
		if err != nil {
			return err
		}
		printDispositions([]*disposition.Disposition{d})
	case dispListCmd.FullCommand():
		res, err := c.ListDispositions(ctx, &disposition.ListDispositionsRequest{UserID: *actorID})
		if err != nil {
			return err
		}
		printDispositions(res.Dispositions)
	case dispCompleteCmd.FullCommand():
		return dispositionAction(ctx, c, "CompleteDisposition", *dispCompleteID)
	case dispToggleCmd.FullCommand():
		return dispositionAction(ctx, c, "ToggleActive", *dispToggleID)
	case dispResubmitCmd.FullCommand():
		return dispositionAction(ctx, c, "ResubmitDisposition", *dispResubmitID)
	case dispVerifyCmd.FullCommand():
		d, err := c.VerifyDisposition(ctx, *dispVerifyID, decision(*dispVerifyRevision), *dispVerifyRevision)
		if err != nil {
			return err
		}
		printDispositions([]*disposition.Disposition{d})

	case collabCreateCmd.FullCommand():
		urgency := collaboration.UrgencyNotUrgent
		if *collabCreateUrgent {
			urgency = collaboration.UrgencyUrgent
		}
		v, err := c.CreateCollaboration(ctx, &collaboration.CreateCollaborationRequest{
			Title:      *collabCreateTitle,
			Urgency:    urgency,
			InviteeIDs: *collabCreateInvite,
		})
		if err != nil {
			return err
		}
		printCollaboration(v)
	case collabListCmd.FullCommand():
		res, err := c.ListCollaborations(ctx, &collaboration.ListCollaborationsRequest{UserID: *actorID})
		if err != nil {
			return err
		}
		printCollaborations(res.Collaborations)
	case collabShowCmd.FullCommand():
		v, err := c.GetCollaboration(ctx, *collabShowID)
		if err != nil {
			return err
		}
		printCollaboration(v)
	case collabInviteCmd.FullCommand():
		v, err := c.MemberAction(ctx, "InviteMember", *collabInviteID, *collabInviteUser)
		if err != nil {
			return err
		}
		printCollaboration(v)
	case collabJoinCmd.FullCommand():
		return collaborationAction(ctx, c, "AcceptInvite", *collabJoinID)
	case collabLeaveCmd.FullCommand():
		return collaborationAction(ctx, c, "DeclineInvite", *collabLeaveID)
	case collabSubtaskCmd.FullCommand():
		v, err := c.AddSubtask(ctx, &collaboration.SubtaskRequest{
			ID:        *collabSubtaskID,
			Title:     *collabSubtaskTitle,
			Assignees: *collabSubtaskAssign,
		})
		if err != nil {
			return err
		}
		printCollaboration(v)
	case collabMoveCmd.FullCommand():
		v, err := c.MoveSubtask(ctx, *collabMoveID, *collabMoveSubtask, collaboration.SubtaskStatus(*collabMoveStatus))
		if err != nil {
			return err
		}
		printCollaboration(v)
	case collabCompleteCmd.FullCommand():
		return collaborationAction(ctx, c, "CompleteCollaboration", *collabCompleteID)
	case collabVerifyCmd.FullCommand():
		v, err := c.VerifyCollaboration(ctx, *collabVerifyID, decision(*collabVerifyRevision), *collabVerifyRevision)
		if err != nil {
			return err
		}
		printCollaboration(v)

	case inboxCmd.FullCommand():
		res, err := c.ListNotifications(ctx, *inboxUnread)
		if err != nil {
			return err
		}
		for _, n := range res.Notifications {
			mark := " "
			if !n.IsRead {
				mark = color.Bold("*")
			}
			fmt.Printf("%s %s  %s\n", mark, color.Faint(n.CreatedAt.Local().Format("2006-01-02 15:04")), n.Message)
		}
		fmt.Printf("%d unread of %d\n", res.Unread, res.Total)
	case inboxReadAll.FullCommand():
		marked, err := c.MarkAllAsRead(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("marked %d notifications as read\n", marked)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func taskAction(ctx context.Context, c *client.Client, method, id string) error {
	t, err := c.TaskAction(ctx, method, id)
	if err != nil {
		return err
	}
	printTasks([]*task.Task{t})
	return nil
}

func dispositionAction(ctx context.Context, c *client.Client, method, id string) error {
	d, err := c.DispositionAction(ctx, method, id)
	if err != nil {
		return err
	}
	printDispositions([]*disposition.Disposition{d})
	return nil
}

func collaborationAction(ctx context.Context, c *client.Client, method, id string) error {
	v, err := c.CollaborationAction(ctx, method, id)
	if err != nil {
		return err
	}
	printCollaboration(v)
	return nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func printUsers(users []*user.User) {
	w := newTable()
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLE\tSTATUS")
	for _, u := range users {
		status := "active"
		if !u.IsActive {
			status = "inactive"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, color.User(u.Name), u.Role, color.Status(status))
	}
	w.Flush()
}

func printTasks(tasks []*task.Task) {
	w := newTable()
	fmt.Fprintln(w, "ID\tSTATUS\tPROGRESS\tFROM\tTO\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\t%s\t%s\n", t.ID, color.Status(string(t.Status)), t.Progress, t.SenderID, t.ReceiverID, t.Title)
	}
	w.Flush()
}

func printTask(t *task.Task) {
	printTasks([]*task.Task{t})
	if t.Description != "" {
		fmt.Println()
		fmt.Println(t.Description)
	}
	if t.RevisionReason != "" {
		fmt.Println(color.Faint("revision requested: ") + t.RevisionReason)
	}
}

func printDispositions(list []*disposition.Disposition) {
	w := newTable()
	fmt.Fprintln(w, "ID\tPERIOD\tSTATUS\tVERIFICATION\tTITLE")
	for _, d := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Period, color.Status(string(d.Status)), color.Status(string(d.Verification.Status)), d.Title)
	}
	w.Flush()
}

func printCollaborations(list []*collaboration.CollaborationView) {
	w := newTable()
	fmt.Fprintln(w, "ID\tSTATUS\tPROGRESS\tMEMBERS\tTITLE")
	for _, v := range list {
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%d\t%s\n", v.ID, color.Status(string(v.Status)), v.CompletionPercentage, len(v.Members), v.Title)
	}
	w.Flush()
}

func printCollaboration(v *collaboration.CollaborationView) {
	printCollaborations([]*collaboration.CollaborationView{v})
	if len(v.Subtasks) == 0 {
		return
	}
	fmt.Println()
	w := newTable()
	fmt.Fprintln(w, "SUBTASK\tSTATUS\tASSIGNEES\tTITLE")
	for _, s := range v.Subtasks {
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", s.ID, color.Status(string(s.Status)), s.Assignees, s.Title)
	}
	w.Flush()
}
