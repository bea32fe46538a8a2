package rush

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/akpsi-umich/portal-backend/pkg/errors"
	"github.com/akpsi-umich/portal-backend/v1/models"
)

// OtherChoice is the categorical value that requires a free-text supplement
const OtherChoice = "OTHER"

// Word caps for the essay responses
const (
	WhyResponseMaxWords = 150
	Q1ResponseMaxWords  = 150
	Q2ResponseMaxWords  = 250
)

// Colleges is the closed set accepted for rushee_college
var Colleges = []string{
	"ROSS", "LSA", "COE", "UMSI", "DENT", "EDU", "SEAS", "KINES",
	"SMTD", "NURS", "PHAR", "SPH", "FORD", "TAUB", "STAMPS", "SSW",
}

var whitespace = regexp.MustCompile(`\s+`)

// FormatToken normalizes a categorical value into FIRSTWORD_SECONDWORD form
func FormatToken(value string) string {
	return whitespace.ReplaceAllString(strings.ToUpper(strings.TrimSpace(value)), "_")
}

// CountWords counts whitespace-separated tokens
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ValidateApplication checks the intake form and returns the normalized fields to store.
// Nothing is returned on error so callers cannot write a partial application.
func ValidateApplication(req models.RushApplicationRequest) (*models.RushApplication, error) {
	app := &models.RushApplication{
		Uniqname:        optional(req.Uniqname),
		PhoneNumber:     optional(req.PhoneNumber),
		Address:         optional(req.Address),
		HighSchool:      optional(req.HighSchool),
		HighSchoolCity:  optional(req.HighSchoolCity),
		HighSchoolState: optional(req.HighSchoolState),
		Honors:          optional(req.Honors),
		Accommodations:  optional(req.Accommodations),
		ResumeURL:       optional(req.ResumeURL),
	}

	previouslyRushed := req.PreviouslyRushed
	major3 := req.Major3AndAbove
	minor2 := req.Minor2AndAbove
	app.PreviouslyRushed = &previouslyRushed
	app.Major3AndAbove = &major3
	app.Minor2AndAbove = &minor2

	var err error
	if app.AcademicYear, err = choiceWithOther(req.AcademicYear, req.AcademicYearOther, "academic year"); err != nil {
		return nil, err
	}

	college := FormatToken(req.College)
	if college == "" {
		return nil, errors.ValidationError("Please select a college")
	}
	if !isCollege(college) {
		return nil, errors.ValidationError(fmt.Sprintf("Unrecognized college: %s", req.College))
	}
	inRoss := college == "ROSS"
	app.College = &college
	app.InRoss = &inRoss

	if app.Gender, err = choiceWithOther(req.Gender, req.GenderOther, "gender"); err != nil {
		return nil, err
	}

	if raw := strings.TrimSpace(req.HighSchoolGradYear); raw != "" {
		year, convErr := strconv.Atoi(raw)
		if convErr != nil || year < models.MinHighSchoolGradYear || year > models.MaxHighSchoolGradYear {
			return nil, errors.ValidationError(fmt.Sprintf("High school graduation year must be between %d and %d",
				models.MinHighSchoolGradYear, models.MaxHighSchoolGradYear))
		}
		app.HighSchoolGradYear = &year
	}

	if app.RushMajor, err = choiceWithOther(req.Major, req.MajorOther, "major"); err != nil {
		return nil, err
	}
	if app.RushMajor == nil {
		return nil, errors.ValidationError("Please select a major")
	}
	if app.RushMajor2, err = choiceWithOther(req.Major2, req.Major2Other, "second major"); err != nil {
		return nil, err
	}
	if app.RushMinor, err = choiceWithOther(req.Minor, req.MinorOther, "minor"); err != nil {
		return nil, err
	}

	if app.BusinessInterest, err = businessInterest(req.BusinessInterest, req.BusinessInterestOther); err != nil {
		return nil, err
	}

	if app.WhyResponse, err = essay(req.WhyResponse, "Why AKPsi Response", WhyResponseMaxWords); err != nil {
		return nil, err
	}
	if app.Q1Response, err = essay(req.Q1Response, "Q1 Response", Q1ResponseMaxWords); err != nil {
		return nil, err
	}
	if app.Q2Response, err = essay(req.Q2Response, "Q2 Response", Q2ResponseMaxWords); err != nil {
		return nil, err
	}

	return app, nil
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isCollege(value string) bool {
	for _, c := range Colleges {
		if c == value {
			return true
		}
	}
	return false
}

// choiceWithOther normalizes a single-select field; OTHER must carry a supplement
func choiceWithOther(choice, other, label string) (*string, error) {
	choice = strings.TrimSpace(choice)
	if choice == "" {
		return nil, nil
	}
	if FormatToken(choice) == OtherChoice {
		if strings.TrimSpace(other) == "" {
			return nil, errors.ValidationError(fmt.Sprintf("Please specify your %s", label))
		}
		token := FormatToken(other)
		return &token, nil
	}
	token := FormatToken(choice)
	return &token, nil
}

// businessInterest unions checkbox selections with the comma-separated OTHER list
func businessInterest(selected []string, other string) (*string, error) {
	var interests []string
	seen := make(map[string]bool)
	add := func(token string) {
		if token != "" && !seen[token] {
			seen[token] = true
			interests = append(interests, token)
		}
	}

	hasOther := false
	for _, value := range selected {
		token := FormatToken(value)
		if token == OtherChoice {
			hasOther = true
			continue
		}
		add(token)
	}

	if hasOther {
		supplied := 0
		for _, entry := range strings.Split(other, ",") {
			if token := FormatToken(entry); token != "" {
				supplied++
				add(token)
			}
		}
		if supplied == 0 {
			return nil, errors.ValidationError("Please specify your business interest")
		}
	}

	if len(interests) == 0 {
		return nil, nil
	}
	joined := strings.Join(interests, ",")
	return &joined, nil
}

func essay(value, label string, maxWords int) (*string, error) {
	if strings.TrimSpace(value) == "" {
		return nil, errors.ValidationError(label + " is required")
	}
	if CountWords(value) > maxWords {
		return nil, errors.ValidationError(fmt.Sprintf("%s must be %d words or less", label, maxWords))
	}
	return &value, nil
}
