package model

import (
	"fmt"
	"time"
)

// Status is the pipeline stage of an application.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusOA        Status = "oa"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusRejected  Status = "rejected"
)

// AllStatuses lists every status in board order.
var AllStatuses = []Status{
	StatusApplied,
	StatusOA,
	StatusInterview,
	StatusOffer,
	StatusRejected,
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusOA, StatusInterview, StatusOffer, StatusRejected:
		return true
	}
	return false
}

// Application is one internship application owned by a single user.
type Application struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"-" gorm:"not null;index:idx_applications_owner_updated,priority:1"`
	Company   string    `json:"company" gorm:"size:255;not null"`
	Role      string    `json:"role" gorm:"size:255;not null"`
	Status    Status    `json:"status" gorm:"type:varchar(20);not null;index"`
	Location  string    `json:"location" gorm:"size:255;not null"`
	Referral  bool      `json:"referral" gorm:"not null"`
	Source    string    `json:"source" gorm:"size:255;not null"`
	Notes     string    `json:"notes" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;autoUpdateTime:false;index:idx_applications_owner_updated,priority:2"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// NewApplication carries the fields accepted when creating an application.
// A nil Status means the caller did not supply one.
type NewApplication struct {
	Company  string
	Role     string
	Status   *Status
	Location string
	Referral bool
	Source   string
	Notes    string
}

// ApplicationPatch is a merge-patch: nil fields are left untouched.
type ApplicationPatch struct {
	Company  *string
	Role     *string
	Status   *Status
	Location *string
	Referral *bool
	Source   *string
	Notes    *string
}
