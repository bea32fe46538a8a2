package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberRecord is the single wide row holding a principal's profile, role and rush state
type MemberRecord struct {
	ID             string  `gorm:"primarykey;column:id" json:"id"`
	UserID         string  `gorm:"column:user_id;not null;uniqueIndex" json:"userId"`
	Email          string  `gorm:"column:email;not null" json:"email"`
	FullName       *string `gorm:"column:full_name" json:"fullName,omitempty"`
	GraduationYear *int    `gorm:"column:graduation_year" json:"graduationYear,omitempty"`
	Major          *string `gorm:"column:major" json:"major,omitempty"`
	Major2         *string `gorm:"column:major2" json:"major2,omitempty"`
	Minor          *string `gorm:"column:minor" json:"minor,omitempty"`
	LinkedInURL    *string `gorm:"column:linkedin_url" json:"linkedinUrl,omitempty"`
	HeadshotPath   *string `gorm:"column:headshot_path" json:"headshotPath,omitempty"`
	Role           string  `gorm:"column:role;not null;default:rushee;index" json:"role"`
	Title          *string `gorm:"column:title" json:"title,omitempty"`
	RusheeStatus   *string `gorm:"column:rushee_status;index" json:"rusheeStatus,omitempty"`
	RushApplication
	BaseModel
}

// RushApplication holds the intake fields written once at submission
type RushApplication struct {
	Uniqname           *string `gorm:"column:rushee_uniqname" json:"uniqname,omitempty"`
	AcademicYear       *string `gorm:"column:rushee_academic_year" json:"academicYear,omitempty"`
	College            *string `gorm:"column:rushee_college" json:"college,omitempty"`
	InRoss             *bool   `gorm:"column:rushee_in_ross" json:"inRoss,omitempty"`
	PhoneNumber        *string `gorm:"column:rushee_phone_number" json:"phoneNumber,omitempty"`
	Address            *string `gorm:"column:rushee_address" json:"address,omitempty"`
	Gender             *string `gorm:"column:rushee_gender" json:"gender,omitempty"`
	PreviouslyRushed   *bool   `gorm:"column:rushee_previously_rushed" json:"previouslyRushed,omitempty"`
	HighSchool         *string `gorm:"column:rushee_high_school" json:"highSchool,omitempty"`
	HighSchoolCity     *string `gorm:"column:rushee_hs_city" json:"highSchoolCity,omitempty"`
	HighSchoolState    *string `gorm:"column:rushee_hs_state" json:"highSchoolState,omitempty"`
	HighSchoolGradYear *int    `gorm:"column:rushee_hs_grad_year" json:"highSchoolGradYear,omitempty"`
	RushMajor          *string `gorm:"column:rushee_major" json:"rushMajor,omitempty"`
	RushMajor2         *string `gorm:"column:rushee_major2" json:"rushMajor2,omitempty"`
	RushMinor          *string `gorm:"column:rushee_minor" json:"rushMinor,omitempty"`
	Major3AndAbove     *bool   `gorm:"column:rushee_major3andabove" json:"major3AndAbove,omitempty"`
	Minor2AndAbove     *bool   `gorm:"column:rushee_minor2andabove" json:"minor2AndAbove,omitempty"`
	Honors             *string `gorm:"column:rushee_honors" json:"honors,omitempty"`
	BusinessInterest   *string `gorm:"column:rushee_business_interest" json:"businessInterest,omitempty"`
	Accommodations     *string `gorm:"column:rushee_accomodations" json:"accommodations,omitempty"`
	WhyResponse        *string `gorm:"column:rushee_why_akpsi_response" json:"whyResponse,omitempty"`
	Q1Response         *string `gorm:"column:rushee_q1_response" json:"q1Response,omitempty"`
	Q2Response         *string `gorm:"column:rushee_q2_response" json:"q2Response,omitempty"`
	ResumeURL          *string `gorm:"column:rushee_resume_url" json:"resumeUrl,omitempty"`
}

// TableName sets the table name for GORM
func (MemberRecord) TableName() string {
	return "members"
}

// BeforeCreate assigns the record id and the default workflow state
func (m *MemberRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = "mem_" + uuid.New().String()
	}
	if m.Role == "" {
		m.Role = string(RoleRushee)
	}
	if m.RusheeStatus == nil {
		status := string(StatusNotSubmitted)
		m.RusheeStatus = &status
	}
	return m.BaseModel.BeforeCreate(tx)
}

// HasCompletedOnboarding is true iff full_name is set
func (m *MemberRecord) HasCompletedOnboarding() bool {
	return m != nil && m.FullName != nil && strings.TrimSpace(*m.FullName) != ""
}

// Status returns the normalized rush status; null is APPLICATION_NOT_SUBMITTED
func (m *MemberRecord) Status() RusheeStatus {
	return NormalizeRusheeStatus(m.RusheeStatus)
}

// ParsedRole returns the recognized role, if any
func (m *MemberRecord) ParsedRole() (Role, bool) {
	return ParseRole(m.Role)
}

// MemberRecordResponse is the profile projection returned to clients, with progress flags derived from status
type MemberRecordResponse struct {
	MemberRecord
	RusheeStatus       RusheeStatus `json:"rusheeStatus"`
	RusheeReachedTop90 bool         `json:"rusheeReachedTop90"`
	RusheeReachedTop50 bool         `json:"rusheeReachedTop50"`
	RusheeBidded       bool         `json:"rusheeBidded"`
}

// ToResponse builds the client projection of the record
func (m *MemberRecord) ToResponse() MemberRecordResponse {
	status := m.Status()
	return MemberRecordResponse{
		MemberRecord:       *m,
		RusheeStatus:       status,
		RusheeReachedTop90: status.ReachedTop90(),
		RusheeReachedTop50: status.ReachedTop50(),
		RusheeBidded:       status.Bidded(),
	}
}
