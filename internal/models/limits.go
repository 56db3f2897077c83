package models

import "unicode/utf8"

// Field length limits, counted in characters.
const (
	MaxUserNameLen        = 64
	MaxUserDisplayNameLen = 64

	MaxTeamNameLen        = 64
	MaxTeamDescriptionLen = 128

	MaxBoardNameLen        = 64
	MaxBoardDescriptionLen = 128

	MaxTaskTitleLen       = 64
	MaxTaskDescriptionLen = 128
	MaxTaskStatusLen      = 20
)

// MaxTeamMembers caps the number of users a team may contain.
const MaxTeamMembers = 50

// WithinLimit reports whether value fits into max characters.
func WithinLimit(value string, max int) bool {
	return utf8.RuneCountInString(value) <= max
}

// MembershipFits reports whether adding n users to a team of current members stays within the cap.
func MembershipFits(current, n int) bool {
	return current+n <= MaxTeamMembers
}
