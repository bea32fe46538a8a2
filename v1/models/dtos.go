package models

// OnboardingRequest is the body of POST /auth/signup
type OnboardingRequest struct {
	FullName       string  `json:"full_name"`
	GraduationYear string  `json:"graduation_year"`
	Major          string  `json:"major"`
	Major2         *string `json:"major2,omitempty"`
	Minor          *string `json:"minor,omitempty"`
	LinkedInURL    *string `json:"linkedin_url,omitempty"`
	HeadshotPath   *string `json:"headshot_path,omitempty"`
}

// UpdateProfileRequest is the body of POST /profile/edit; only these fields are writable by the owner
type UpdateProfileRequest struct {
	GraduationYear *string `json:"graduation_year,omitempty"`
	Major          *string `json:"major,omitempty"`
	Major2         *string `json:"major2,omitempty"`
	Minor          *string `json:"minor,omitempty"`
	LinkedInURL    *string `json:"linkedin_url,omitempty"`
}

// RushApplicationRequest is the raw intake form as submitted
type RushApplicationRequest struct {
	Uniqname              string   `json:"rushee_uniqname"`
	AcademicYear          string   `json:"rushee_academic_year"`
	AcademicYearOther     string   `json:"rushee_academic_year_other"`
	College               string   `json:"rushee_college"`
	PhoneNumber           string   `json:"rushee_phone_number"`
	Address               string   `json:"rushee_address"`
	Gender                string   `json:"gender"`
	GenderOther           string   `json:"gender_other"`
	PreviouslyRushed      bool     `json:"rushee_previously_rushed"`
	HighSchool            string   `json:"rushee_high_school"`
	HighSchoolCity        string   `json:"rushee_hs_city"`
	HighSchoolState       string   `json:"rushee_hs_state"`
	HighSchoolGradYear    string   `json:"rushee_hs_grad_year"`
	Major                 string   `json:"rushee_major"`
	MajorOther            string   `json:"rushee_major_other"`
	Major2                string   `json:"rushee_major2"`
	Major2Other           string   `json:"rushee_major2_other"`
	Minor                 string   `json:"rushee_minor"`
	MinorOther            string   `json:"rushee_minor_other"`
	Major3AndAbove        bool     `json:"rushee_major3andabove"`
	Minor2AndAbove        bool     `json:"rushee_minor2andabove"`
	Honors                string   `json:"rushee_honors"`
	BusinessInterest      []string `json:"rushee_business_interest"`
	BusinessInterestOther string   `json:"rushee_business_interest_other"`
	Accommodations        string   `json:"rushee_accomodations"`
	WhyResponse           string   `json:"rushee_why_akpsi_response"`
	Q1Response            string   `json:"rushee_q1_response"`
	Q2Response            string   `json:"rushee_q2_response"`
	ResumeURL             string   `json:"rushee_resume_url"`
}

// AdvanceRusheeRequest is the body of POST /rush/tracker/advance
type AdvanceRusheeRequest struct {
	RecordID string       `json:"record_id"`
	To       RusheeStatus `json:"to"`
}

// ActionResult is the typed outcome of a mutating operation
type ActionResult struct {
	Success  bool          `json:"success"`
	Redirect string        `json:"redirect,omitempty"`
	Record   *MemberRecord `json:"record,omitempty"`
}
