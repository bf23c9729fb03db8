package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/diagnosis/visitor-desk/internal/utils"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func ParseGender(s string) (Gender, bool) {
	switch Gender(s) {
	case GenderMale, GenderFemale:
		return Gender(s), true
	default:
		return "", false
	}
}

type Visitor struct {
	ID          int64     `json:"id" db:"id"`
	FullName    string    `json:"fullname" db:"fullname"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Gender      Gender    `json:"gender" db:"gender"`
	Address     string    `json:"address" db:"address"`
	Visiting    string    `json:"visiting" db:"visiting"`
	Reason      string    `json:"reason" db:"reason"`
	TimeIn      string    `json:"timeIn" db:"time_in"`
	TimeOut     *string   `json:"timeOut" db:"time_out"`
	Notes       *string   `json:"notes" db:"notes"`
	UserID      *string   `json:"user_id" db:"user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Creator is who logged a visit: the literal "visitor" for self check-in or
// a missing profile, otherwise the staff member's username and role.
type Creator struct {
	Username string
	Role     Role
}

func (c Creator) IsVisitor() bool {
	return c.Username == "" && c.Role == ""
}

func (c Creator) MarshalJSON() ([]byte, error) {
	if c.IsVisitor() {
		return json.Marshal("visitor")
	}
	return json.Marshal(struct {
		Username string `json:"username"`
		Role     Role   `json:"role"`
	}{c.Username, c.Role})
}

func (c *Creator) UnmarshalJSON(data []byte) error {
	var literal string
	if json.Unmarshal(data, &literal) == nil {
		*c = Creator{}
		return nil
	}
	var v struct {
		Username string `json:"username"`
		Role     Role   `json:"role"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.Username, c.Role = v.Username, v.Role
	return nil
}

// VisitorView is a visitor as shown in the staff list.
type VisitorView struct {
	Visitor
	CreatedBy Creator `json:"created_by"`
}

type CreateVisitorRequest struct {
	FullName    string  `json:"fullname" validate:"required"`
	PhoneNumber string  `json:"phone_number" validate:"required"`
	Gender      Gender  `json:"gender" validate:"required,oneof=male female"`
	Address     string  `json:"address" validate:"required,district"`
	Visiting    string  `json:"visiting" validate:"required"`
	Reason      string  `json:"reason" validate:"required"`
	TimeIn      string  `json:"timeIn" validate:"required"`
	TimeOut     *string `json:"timeOut,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

func (r *CreateVisitorRequest) Normalize() {
	r.FullName = utils.NormalizeString(r.FullName)
	r.PhoneNumber = utils.NormalizeString(r.PhoneNumber)
	r.Gender = Gender(strings.ToLower(utils.NormalizeString(string(r.Gender))))
	r.Address = utils.NormalizeString(r.Address)
	r.Visiting = utils.NormalizeString(r.Visiting)
	r.Reason = utils.NormalizeString(r.Reason)
	r.TimeIn = utils.NormalizeString(r.TimeIn)
	r.TimeOut = utils.NormalizeOptional(r.TimeOut)
	r.Notes = utils.NormalizeOptional(r.Notes)
}

// VisitorPatch carries only the fields being changed.
type VisitorPatch struct {
	FullName    *string `json:"fullname,omitempty" validate:"omitnil,min=1"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitnil,min=1"`
	Gender      *Gender `json:"gender,omitempty" validate:"omitnil,oneof=male female"`
	Address     *string `json:"address,omitempty" validate:"omitnil,district"`
	Visiting    *string `json:"visiting,omitempty" validate:"omitnil,min=1"`
	Reason      *string `json:"reason,omitempty" validate:"omitnil,min=1"`
	TimeIn      *string `json:"timeIn,omitempty" validate:"omitnil,min=1"`
	TimeOut     *string `json:"timeOut,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	// ClearTimeOut and ClearNotes null the column; a nil pointer leaves it alone.
	ClearTimeOut bool `json:"clearTimeOut,omitempty"`
	ClearNotes   bool `json:"clearNotes,omitempty"`
}

func (p *VisitorPatch) Normalize() {
	for _, f := range []**string{&p.FullName, &p.PhoneNumber, &p.Address, &p.Visiting, &p.Reason, &p.TimeIn, &p.TimeOut, &p.Notes} {
		if *f != nil {
			v := utils.NormalizeString(**f)
			*f = &v
		}
	}
	if p.Gender != nil {
		g := Gender(strings.ToLower(utils.NormalizeString(string(*p.Gender))))
		p.Gender = &g
	}
}

// Changes lists the columns the patch touches, in a stable order.
func (p *VisitorPatch) Changes() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.FullName != nil, "fullname")
	add(p.PhoneNumber != nil, "phone_number")
	add(p.Gender != nil, "gender")
	add(p.Address != nil, "address")
	add(p.Visiting != nil, "visiting")
	add(p.Reason != nil, "reason")
	add(p.TimeIn != nil, "time_in")
	add(p.TimeOut != nil || p.ClearTimeOut, "time_out")
	add(p.Notes != nil || p.ClearNotes, "notes")
	return out
}

// DateRange bounds created_at by whole days, inclusive on both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Bounds returns [start of Start, start of the day after End).
func (d DateRange) Bounds(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	sy, sm, sd := d.Start.In(loc).Date()
	ey, em, ed := d.End.In(loc).Date()
	return time.Date(sy, sm, sd, 0, 0, 0, 0, loc), time.Date(ey, em, ed, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
}

type VisitorFilter struct {
	Search  string
	Gender  Gender
	Address string
	// Dates applies only while DateEnabled is set.
	Dates       DateRange
	DateEnabled bool
}

type VisitorQuery struct {
	Page   int
	Limit  int
	Filter VisitorFilter
}

// Offset converts the 1-indexed page to a row offset.
func (q VisitorQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

type VisitorPage struct {
	Items      []VisitorView `json:"visitors"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}

// TotalPages is ceil(total/limit), zero when there is nothing to show.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
