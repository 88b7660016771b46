package models

import "time"

// APIErrorBody is the JSON error shape returned by the control plane.
type APIErrorBody struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	DebugInfo string `json:"debugInfo,omitempty"`
	ErrorCode int    `json:"errorCode,omitempty"`
}

// UserAccount is the authenticated user's own account record.
type UserAccount struct {
	ID        uint64 `json:"id"`
	UserName  string `json:"userName"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// User is an account record from the admin endpoints.
type User struct {
	ID        uint64     `json:"id"`
	UserName  string     `json:"userName"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Email     string     `json:"email,omitempty"`
	IsLocked  bool       `json:"isLocked,omitempty"`
	ExpireAt  *time.Time `json:"expireAt,omitempty"`
	LastLogin *time.Time `json:"lastLoginSuccessAt,omitempty"`
}

// UserList is a ranged list of users.
type UserList struct {
	Range Range  `json:"range"`
	Items []User `json:"items"`
}

// Group is a user group record.
type Group struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	CntUsers  int        `json:"cntUsers,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// GroupList is a ranged list of groups.
type GroupList struct {
	Range Range   `json:"range"`
	Items []Group `json:"items"`
}

// EventLogEntry is one audit record. The record set is treated as opaque by
// the pager; only identity and ordering fields are named here.
type EventLogEntry struct {
	ID         uint64     `json:"id"`
	Time       *time.Time `json:"time,omitempty"`
	UserID     uint64     `json:"userId,omitempty"`
	UserName   string     `json:"userName,omitempty"`
	Operation  string     `json:"operationName,omitempty"`
	Status     int        `json:"status,omitempty"`
	Message    string     `json:"message,omitempty"`
	CustomerID uint64     `json:"customerId,omitempty"`
}

// EventLogList is a ranged list of audit records.
type EventLogList struct {
	Range Range           `json:"range"`
	Items []EventLogEntry `json:"items"`
}
