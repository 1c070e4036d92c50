package models

import "time"

// Question kind constants
const (
	KindMulti = "multi"
)

// Group role constants
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Request types

type SignupRequest struct {
	Handle      string `json:"handle"`
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name,omitempty"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type ConfirmRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

type VerifyRequest struct {
	Code string `json:"code"`
}

type DeleteAccountRequest struct {
	Code string `json:"code"`
}

type SetHandleRequest struct {
	Handle string `json:"handle"`
}

type SetProfileRequest struct {
	Name string `json:"name"`
}

type CheckPhonesRequest struct {
	PhoneNumbers []string `json:"phone_numbers"`
}

type FriendRequest struct {
	PhoneNumber string `json:"phone_number,omitempty"`
	UserID      ID     `json:"user_id,omitempty"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type AddMemberRequest struct {
	UserID ID     `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

type CreateQuestionRequest struct {
	Kind     string   `json:"kind"`
	Prompt   string   `json:"prompt"`
	Priority int64    `json:"priority"`
	Options  []string `json:"options"`
}

type OpineRequest struct {
	MultiSelectionID ID `json:"multi_selection_id"`
}

type CommentRequest struct {
	Content string `json:"content"`
}

// Response types

type LoginResponse struct {
	Sent bool `json:"sent"`
}

type LoginSuccess struct {
	AuthToken string `json:"auth_token"`
	User      User   `json:"user"`
}

type StatusResponse struct {
	Version string `json:"version"`
	OK      string `json:"ok"`
	Uptime  string `json:"uptime"`
}

type PhoneCheck struct {
	Number   string `json:"number"`
	SignedUp bool   `json:"signed_up"`
}

// Domain types

type User struct {
	ID            ID         `json:"id"`
	Handle        string     `json:"handle"`
	Name          *string    `json:"name,omitempty"`
	PhoneNumber   string     `json:"phone_number"`
	PhoneVerified *time.Time `json:"phone_verified,omitempty"`
	// NeedsHandle reports that the account was created phone-first and
	// still carries its placeholder handle.
	NeedsHandle bool      `json:"needs_handle"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
}

type SimpleUser struct {
	ID     ID     `json:"id"`
	Handle string `json:"handle"`
}

type FriendUser struct {
	ID          ID      `json:"id"`
	Handle      string  `json:"handle"`
	Name        *string `json:"name,omitempty"`
	PhoneNumber string  `json:"phone_number"`
}

type PotentialFriendUser struct {
	ID       ID     `json:"id"`
	Handle   string `json:"handle"`
	IsFriend bool   `json:"is_friend"`
}

type Friend struct {
	RelationshipID ID         `json:"relationship_id"`
	Accepted       *time.Time `json:"accepted,omitempty"`
	User           FriendUser `json:"user"`
	Created        time.Time  `json:"created"`
}

type Group struct {
	ID           ID         `json:"id"`
	Name         string     `json:"name"`
	CreatingUser SimpleUser `json:"creating_user"`
	Created      time.Time  `json:"created"`
}

type GroupAssociation struct {
	ID       ID         `json:"id"`
	Role     string     `json:"role"`
	User     SimpleUser `json:"user"`
	Created  time.Time  `json:"created"`
	Modified time.Time  `json:"modified"`
}

type Question struct {
	ID      ID                    `json:"id"`
	Kind    string                `json:"kind"`
	Prompt  string                `json:"prompt"`
	Options []QuestionMultiOption `json:"options,omitempty"`
	// Pinion is the current user's answer, when one exists.
	Pinion  *Pinion   `json:"pinion,omitempty"`
	Created time.Time `json:"created"`
}

type QuestionMultiOption struct {
	ID         ID     `json:"id"`
	QuestionID ID     `json:"question_id"`
	Rank       int64  `json:"rank"`
	Value      string `json:"value"`
}

type Pinion struct {
	ID               ID        `json:"id"`
	QuestionID       ID        `json:"question_id"`
	MultiSelectionID ID        `json:"multi_selection_id"`
	Created          time.Time `json:"created"`
}

type FriendPinion struct {
	ID               ID         `json:"id"`
	QuestionID       ID         `json:"question_id"`
	MultiSelectionID ID         `json:"multi_selection_id"`
	User             FriendUser `json:"user"`
}

type Comment struct {
	ID       ID         `json:"id"`
	PinionID ID         `json:"pinion_id"`
	User     SimpleUser `json:"user"`
	Content  string     `json:"content"`
	Created  time.Time  `json:"created"`
}

// Summary types

type OptionSummary struct {
	ID         ID    `json:"id"`
	Count      int64 `json:"count"`
	Percentage int64 `json:"percentage"`
}

type QuestionSummary struct {
	TotalCount int64           `json:"total_count"`
	Options    []OptionSummary `json:"options"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	// Key is a stable, machine-readable failure code the mobile client
	// switches on (UNAVAILABLE_HANDLE, MULTIPLE_DAILY_RESPONSES, ...).
	Key string `json:"key,omitempty"`
}
