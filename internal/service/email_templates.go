package service

import (
	"fmt"
	"strings"

	"github.com/templui/tutordesk/internal/model"
)

func goalCompletedEmailTemplate(goal *model.Goal, goalURL, appName string) (string, string) {
	subject := fmt.Sprintf("Goal completed: %s", goal.Title)

	target := ""
	if goal.Target != "" {
		target = fmt.Sprintf("\nTarget: %s\n", goal.Target)
	}

	body := fmt.Sprintf(`Congratulations!

You completed "%s".
%s
See the goal here:
%s

Keep it up,
The %s Team`, goal.Title, target, goalURL, appName)

	return subject, body
}

func deadlineDigestEmailTemplate(overdue, dueSoon []*model.Goal, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("%s: %d overdue, %d due soon", appName, len(overdue), len(dueSoon))

	var b strings.Builder
	b.WriteString("Here is your deadline overview.\n")

	writeSection := func(title string, goals []*model.Goal) {
		if len(goals) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, g := range goals {
			fmt.Fprintf(&b, "- %s (%d%%, due %s)\n", g.Title, g.Progress, g.DueDate.Format("Jan 2, 2006"))
		}
	}
	writeSection("Overdue", overdue)
	writeSection("Due within 48 hours", dueSoon)

	fmt.Fprintf(&b, "\nOpen your goals: %s/api/goals\n\nBest,\nThe %s Team", appURL, appName)

	return subject, b.String()
}
