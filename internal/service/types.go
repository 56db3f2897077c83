package service

import (
	"encoding/json"
	"time"
)

// IDResult carries the identity of a created entity.
type IDResult struct {
	ID int64 `json:"id"`
}

// StatusResult carries the number of rows an update touched.
type StatusResult struct {
	Status int64 `json:"status"`
}

type CreateUserRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	DisplayName string `json:"display_name" validate:"max=64"`
}

// UserChanges lists the user fields to change; nil fields stay untouched.
type UserChanges struct {
	Name        *string `json:"name"`
	DisplayName *string `json:"display_name"`
}

type UpdateUserRequest struct {
	ID   int64       `json:"id" validate:"required"`
	User UserChanges `json:"user"`
}

type UserDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name"`
	CreationTime time.Time `json:"creation_time"`
}

type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=128"`
	Admin       *int64 `json:"admin"`
}

// TeamChanges lists the team fields to change; nil fields stay untouched.
// Admin distinguishes an absent key from an explicit null, which clears it.
type TeamChanges struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Admin       OptionalID `json:"admin"`
}

// OptionalID is an id that may be absent, null or set.
type OptionalID struct {
	Set bool
	ID  *int64
}

// SomeID returns an OptionalID holding id.
func SomeID(id int64) OptionalID {
	return OptionalID{Set: true, ID: &id}
}

// NullID returns an OptionalID that clears the field.
func NullID() OptionalID {
	return OptionalID{Set: true}
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.ID = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.ID = &id
	return nil
}

func (o OptionalID) MarshalJSON() ([]byte, error) {
	if o.ID == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.ID)
}

type UpdateTeamRequest struct {
	ID   int64       `json:"id" validate:"required"`
	Team TeamChanges `json:"team"`
}

type TeamDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreationTime time.Time `json:"creation_time"`
	Admin        *int64    `json:"admin"`
}

type TeamSummary struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TeamMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// MembershipRequest names a team and the users to add or remove.
type MembershipRequest struct {
	ID    int64   `json:"id" validate:"required"`
	Users []int64 `json:"users"`
}

// MembershipResult reports which user ids were applied and which were skipped
// because they did not resolve or needed no change.
type MembershipResult struct {
	Applied []int64 `json:"applied"`
	Skipped []int64 `json:"skipped"`
}

type CreateBoardRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=128"`
	TeamID      int64  `json:"team_id" validate:"required"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=64"`
	Description string `json:"description" validate:"max=128"`
	BoardID     int64  `json:"board_id" validate:"required"`
	UserID      *int64 `json:"user_id"`
}

type UpdateTaskStatusRequest struct {
	ID     int64  `json:"id" validate:"required"`
	Status string `json:"status" validate:"required,max=20"`
}

type BoardSummary struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Tasks  []int64 `json:"tasks"`
}

type ExportResult struct {
	OutFile string `json:"out_file"`
}
