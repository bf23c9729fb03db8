package client

import (
	"encoding/json"
	"time"
)

type Visitor struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"fullname"`
	PhoneNumber string    `json:"phone_number"`
	Gender      string    `json:"gender"`
	Address     string    `json:"address"`
	Visiting    string    `json:"visiting"`
	Reason      string    `json:"reason"`
	TimeIn      string    `json:"timeIn"`
	TimeOut     *string   `json:"timeOut"`
	Notes       *string   `json:"notes"`
	UserID      *string   `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   Creator   `json:"created_by"`
}

// Creator is "visitor" for self check-ins, otherwise the staff member.
type Creator struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

func (c Creator) IsVisitor() bool {
	return c.Username == "" && c.Role == ""
}

func (c *Creator) UnmarshalJSON(data []byte) error {
	var literal string
	if json.Unmarshal(data, &literal) == nil {
		*c = Creator{}
		return nil
	}
	type plain Creator
	return json.Unmarshal(data, (*plain)(c))
}

func (c Creator) MarshalJSON() ([]byte, error) {
	if c.IsVisitor() {
		return json.Marshal("visitor")
	}
	type plain Creator
	return json.Marshal(plain(c))
}

type VisitorPage struct {
	Visitors   []Visitor `json:"visitors"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"total_pages"`
}

// ListOptions is encoded into the list query string.
type ListOptions struct {
	Page       int    `url:"page,omitempty"`
	Limit      int    `url:"limit,omitempty"`
	Search     string `url:"search,omitempty"`
	Gender     string `url:"gender,omitempty"`
	Address    string `url:"address,omitempty"`
	DateFilter bool   `url:"date_filter,omitempty"`
	StartDate  string `url:"start_date,omitempty"`
	EndDate    string `url:"end_date,omitempty"`
}

type CreateVisitorInput struct {
	FullName    string  `json:"fullname"`
	PhoneNumber string  `json:"phone_number"`
	Gender      string  `json:"gender"`
	Address     string  `json:"address"`
	Visiting    string  `json:"visiting"`
	Reason      string  `json:"reason"`
	TimeIn      string  `json:"timeIn"`
	TimeOut     *string `json:"timeOut,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type VisitorPatch struct {
	FullName     *string `json:"fullname,omitempty"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
	Gender       *string `json:"gender,omitempty"`
	Address      *string `json:"address,omitempty"`
	Visiting     *string `json:"visiting,omitempty"`
	Reason       *string `json:"reason,omitempty"`
	TimeIn       *string `json:"timeIn,omitempty"`
	TimeOut      *string `json:"timeOut,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	ClearTimeOut bool    `json:"clearTimeOut,omitempty"`
	ClearNotes   bool    `json:"clearNotes,omitempty"`
}
