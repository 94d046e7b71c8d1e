package github

import (
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/normalisers/markdown"
)

// issueSummary projects an issue onto the fields compared for staleness.
// The item count is the number of comments.
func issueSummary(issue *gh.Issue) domain.RemoteSummary {
	return domain.RemoteSummary{
		RemoteID:       int64(issue.GetNumber()),
		Title:          issue.GetTitle(),
		ItemCount:      issue.GetComments(),
		LastActivityAt: issue.GetUpdatedAt().Time,
	}
}

// issueRecord converts an issue to the stored record.
func issueRecord(issue *gh.Issue) domain.LocalRecord {
	labels := make([]string, len(issue.Labels))
	for i, l := range issue.Labels {
		labels[i] = l.GetName()
	}

	assignees := make([]string, len(issue.Assignees))
	for i, a := range issue.Assignees {
		assignees[i] = a.GetLogin()
	}

	attrs := map[string]string{
		"html_url": issue.GetHTMLURL(),
		"locked":   strconv.FormatBool(issue.GetLocked()),
	}
	if id := issue.GetID(); id != 0 {
		attrs[domain.AttrGlobalID] = strconv.FormatInt(id, 10)
	}
	if len(labels) > 0 {
		attrs["labels"] = strings.Join(labels, ",")
	}
	if len(assignees) > 0 {
		attrs["assignees"] = strings.Join(assignees, ",")
	}
	if issue.Milestone != nil {
		attrs["milestone"] = issue.Milestone.GetTitle()
	}
	if issue.IsPullRequest() {
		attrs["pull_request"] = "true"
	}
	if issue.ClosedAt != nil {
		attrs["closed_at"] = issue.GetClosedAt().Time.UTC().Format(time.RFC3339)
	}

	return domain.LocalRecord{
		Kind:           domain.KindTracker,
		SubjectID:      int64(issue.GetNumber()),
		Title:          issue.GetTitle(),
		State:          issue.GetState(),
		Author:         issue.GetUser().GetLogin(),
		Body:           issue.GetBody(),
		ItemCount:      issue.GetComments(),
		LastActivityAt: issue.GetUpdatedAt().Time,
		CreatedAt:      issue.GetCreatedAt().Time,
		Attributes:     attrs,
	}
}

// commentChildren converts one page of comments. Number is the 1-based
// position of the comment within the issue.
func commentChildren(number int64, page int, comments []*gh.IssueComment) []domain.ChildItem {
	children := make([]domain.ChildItem, 0, len(comments))
	offset := (page - 1) * PerPage
	for i, c := range comments {
		children = append(children, domain.ChildItem{
			SubjectID: number,
			ChildID:   c.GetID(),
			Number:    offset + i + 1,
			Author:    c.GetUser().GetLogin(),
			Body:      c.GetBody(),
			Text:      markdown.Text(c.GetBody()),
			CreatedAt: c.GetCreatedAt().Time,
			UpdatedAt: c.GetUpdatedAt().Time,
		})
	}
	return children
}
