package enums

import "fmt"

// NotifyType names the event a notification was tracked for.
type NotifyType string

const (
	NotifyAddMember   NotifyType = "add_member"
	NotifyRepoImport  NotifyType = "repo_import"
	NotifyComment     NotifyType = "comment"
	NotifyMention     NotifyType = "mention"
	NotifyIssueAssign NotifyType = "issue_assign"
	NotifyNewIssue    NotifyType = "new_issue"
	NotifyCloseIssue  NotifyType = "close_issue"
	NotifyReopenIssue NotifyType = "reopen_issue"
)

var validNotifyTypes = []NotifyType{
	NotifyAddMember,
	NotifyRepoImport,
	NotifyComment,
	NotifyMention,
	NotifyIssueAssign,
	NotifyNewIssue,
	NotifyCloseIssue,
	NotifyReopenIssue,
}

// NotifyTypes returns the allow-list in declaration order.
func NotifyTypes() []NotifyType {
	out := make([]NotifyType, len(validNotifyTypes))
	copy(out, validNotifyTypes)
	return out
}

// IsValid checks whether the given type is on the allow-list.
func (n NotifyType) IsValid() bool {
	for _, candidate := range validNotifyTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotifyType converts raw strings into NotifyType.
func ParseNotifyType(value string) (NotifyType, error) {
	for _, candidate := range validNotifyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notify type %q", value)
}
