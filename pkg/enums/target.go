package enums

import "fmt"

// TargetKind is the polymorphic type tag stored in notifications.target_type.
type TargetKind string

const (
	TargetMember     TargetKind = "Member"
	TargetRepository TargetKind = "Repository"
	TargetComment    TargetKind = "Comment"
	TargetIssue      TargetKind = "Issue"
	TargetDoc        TargetKind = "Doc"
	// TargetGroup and TargetUser only appear as member subjects or comment parents.
	TargetGroup TargetKind = "Group"
	TargetUser  TargetKind = "User"
)

var validTargetKinds = []TargetKind{
	TargetMember,
	TargetRepository,
	TargetComment,
	TargetIssue,
	TargetDoc,
}

// IsValid reports whether the kind can be stored as a notification target.
func (k TargetKind) IsValid() bool {
	for _, candidate := range validTargetKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTargetKind converts raw strings into TargetKind.
func ParseTargetKind(value string) (TargetKind, error) {
	for _, candidate := range validTargetKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid target type %q", value)
}
