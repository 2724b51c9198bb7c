// Package student defines the student record shape consumed by the
// prediction service, the option catalog that drives forms and
// validation, and the field-level diffing used by what-if analysis.
package student

import (
	"fmt"
	"strconv"
	"strings"
)

// Gender is the student gender label.
type Gender string

// AgeBand is the student age group label.
type AgeBand string

// Education is the highest-education label.
type Education string

// Region is the UK region label.
type Region string

// IMDBand is the Index of Multiple Deprivation decile label.
type IMDBand string

// Disability is the disability flag label.
type Disability string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"

	AgeYoung  AgeBand = "0-35"
	AgeMiddle AgeBand = "35-55"
	AgeSenior AgeBand = "55<="

	EduNoFormal     Education = "No Formal quals"
	EduBelowALevel  Education = "Lower Than A Level"
	EduALevel       Education = "A Level or Equivalent"
	EduHE           Education = "HE Qualification"
	EduPostGraduate Education = "Post Graduate Qualification"

	DisabilityYes Disability = "Y"
	DisabilityNo  Disability = "N"
)

// Record is one complete student row as the prediction service expects it.
// JSON names match the service schema field for field.
type Record struct {
	CodeModule       string `json:"code_module"`
	CodePresentation string `json:"code_presentation"`
	IDStudent        int    `json:"id_student"`

	Gender           Gender     `json:"gender"`
	Region           Region     `json:"region"`
	HighestEducation Education  `json:"highest_education"`
	IMDBand          IMDBand    `json:"imd_band"`
	AgeBand          AgeBand    `json:"age_band"`
	Disability       Disability `json:"disability"`

	NumOfPrevAttempts int  `json:"num_of_prev_attempts"`
	StudiedCredits    int  `json:"studied_credits"`
	CompletedCourse   bool `json:"completed_course"`
	WithdrawalStatus  bool `json:"withdrawal_status"`

	TotalClicks         float64 `json:"total_clicks"`
	AvgClicksPerSession float64 `json:"avg_clicks_per_session"`
	ClickVariability    float64 `json:"click_variability"`
	TotalSessions       int     `json:"total_sessions"`
	ActiveDays          int     `json:"active_days"`
	EngagementDuration  float64 `json:"engagement_duration"`
	DailyEngagementRate float64 `json:"daily_engagement_rate"`

	FirstAccessDay int `json:"first_access_day"`
	LastAccessDay  int `json:"last_access_day"`

	AvgAssessmentScore float64 `json:"avg_assessment_score"`
	ScoreConsistency   float64 `json:"score_consistency"`
	TotalAssessments   int     `json:"total_assessments"`
	FirstSubmission    int     `json:"first_submission"`
	LastSubmission     int     `json:"last_submission"`
	BankedAssessments  int     `json:"banked_assessments"`

	// Known outcome, when the record comes from historical data. Reference
	// only; the service never requires it.
	FinalResult string `json:"final_result,omitempty"`
}

// Example returns the canonical sample record used to prefill the form and
// document the CLI. Mirrors the service's own schema example.
func Example() Record {
	return Record{
		CodeModule:          "AAA",
		CodePresentation:    "2013J",
		IDStudent:           11391,
		Gender:              GenderMale,
		Region:              "East Anglian Region",
		HighestEducation:    EduHE,
		IMDBand:             "90-100%",
		AgeBand:             AgeSenior,
		Disability:          DisabilityNo,
		NumOfPrevAttempts:   0,
		StudiedCredits:      240,
		CompletedCourse:     true,
		WithdrawalStatus:    false,
		TotalClicks:         1500.5,
		AvgClicksPerSession: 25.3,
		ClickVariability:    15.2,
		TotalSessions:       60,
		ActiveDays:          45,
		EngagementDuration:  120.5,
		DailyEngagementRate: 0.75,
		FirstAccessDay:      5,
		LastAccessDay:       180,
		AvgAssessmentScore:  75.5,
		ScoreConsistency:    5.2,
		TotalAssessments:    8,
		FirstSubmission:     15,
		LastSubmission:      170,
		BankedAssessments:   2,
	}
}

// fieldValue pairs a JSON field name with its current value.
type fieldValue struct {
	name  string
	value any
}

// fieldValues lists every comparable field in catalog order. Diff, Get and
// the form all read from this single ordering.
func (r Record) fieldValues() []fieldValue {
	return []fieldValue{
		{FieldCodeModule, r.CodeModule},
		{FieldCodePresentation, r.CodePresentation},
		{FieldIDStudent, r.IDStudent},
		{FieldGender, r.Gender},
		{FieldRegion, r.Region},
		{FieldHighestEducation, r.HighestEducation},
		{FieldIMDBand, r.IMDBand},
		{FieldAgeBand, r.AgeBand},
		{FieldDisability, r.Disability},
		{FieldNumOfPrevAttempts, r.NumOfPrevAttempts},
		{FieldStudiedCredits, r.StudiedCredits},
		{FieldCompletedCourse, r.CompletedCourse},
		{FieldWithdrawalStatus, r.WithdrawalStatus},
		{FieldTotalClicks, r.TotalClicks},
		{FieldAvgClicksPerSession, r.AvgClicksPerSession},
		{FieldClickVariability, r.ClickVariability},
		{FieldTotalSessions, r.TotalSessions},
		{FieldActiveDays, r.ActiveDays},
		{FieldEngagementDuration, r.EngagementDuration},
		{FieldDailyEngagementRate, r.DailyEngagementRate},
		{FieldFirstAccessDay, r.FirstAccessDay},
		{FieldLastAccessDay, r.LastAccessDay},
		{FieldAvgAssessmentScore, r.AvgAssessmentScore},
		{FieldScoreConsistency, r.ScoreConsistency},
		{FieldTotalAssessments, r.TotalAssessments},
		{FieldFirstSubmission, r.FirstSubmission},
		{FieldLastSubmission, r.LastSubmission},
		{FieldBankedAssessments, r.BankedAssessments},
		{FieldFinalResult, r.FinalResult},
	}
}

// Get returns the display string for a field by JSON name. Unknown names
// return the empty string.
func (r Record) Get(name string) string {
	for _, fv := range r.fieldValues() {
		if fv.name != name {
			continue
		}
		switch v := fv.value.(type) {
		case string:
			return v
		case Gender:
			return string(v)
		case Region:
			return string(v)
		case Education:
			return string(v)
		case IMDBand:
			return string(v)
		case AgeBand:
			return string(v)
		case Disability:
			return string(v)
		case int:
			return strconv.Itoa(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// Set parses raw into the named field. The raw form is what a form input or
// flag carries: plain text for strings and categoricals, decimal for
// numerics, true/false for booleans.
func (r *Record) Set(name, raw string) error {
	raw = strings.TrimSpace(raw)

	parseInt := func() (int, error) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a whole number", name, raw)
		}
		return n, nil
	}
	parseFloat := func() (float64, error) {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", name, raw)
		}
		return f, nil
	}
	parseBool := func() (bool, error) {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return false, fmt.Errorf("%s: %q is not true/false", name, raw)
		}
		return b, nil
	}

	var err error
	switch name {
	case FieldCodeModule:
		r.CodeModule = raw
	case FieldCodePresentation:
		r.CodePresentation = raw
	case FieldIDStudent:
		r.IDStudent, err = parseInt()
	case FieldGender:
		r.Gender = Gender(raw)
	case FieldRegion:
		r.Region = Region(raw)
	case FieldHighestEducation:
		r.HighestEducation = Education(raw)
	case FieldIMDBand:
		r.IMDBand = IMDBand(raw)
	case FieldAgeBand:
		r.AgeBand = AgeBand(raw)
	case FieldDisability:
		r.Disability = Disability(raw)
	case FieldNumOfPrevAttempts:
		r.NumOfPrevAttempts, err = parseInt()
	case FieldStudiedCredits:
		r.StudiedCredits, err = parseInt()
	case FieldCompletedCourse:
		r.CompletedCourse, err = parseBool()
	case FieldWithdrawalStatus:
		r.WithdrawalStatus, err = parseBool()
	case FieldTotalClicks:
		r.TotalClicks, err = parseFloat()
	case FieldAvgClicksPerSession:
		r.AvgClicksPerSession, err = parseFloat()
	case FieldClickVariability:
		r.ClickVariability, err = parseFloat()
	case FieldTotalSessions:
		r.TotalSessions, err = parseInt()
	case FieldActiveDays:
		r.ActiveDays, err = parseInt()
	case FieldEngagementDuration:
		r.EngagementDuration, err = parseFloat()
	case FieldDailyEngagementRate:
		r.DailyEngagementRate, err = parseFloat()
	case FieldFirstAccessDay:
		r.FirstAccessDay, err = parseInt()
	case FieldLastAccessDay:
		r.LastAccessDay, err = parseInt()
	case FieldAvgAssessmentScore:
		r.AvgAssessmentScore, err = parseFloat()
	case FieldScoreConsistency:
		r.ScoreConsistency, err = parseFloat()
	case FieldTotalAssessments:
		r.TotalAssessments, err = parseInt()
	case FieldFirstSubmission:
		r.FirstSubmission, err = parseInt()
	case FieldLastSubmission:
		r.LastSubmission, err = parseInt()
	case FieldBankedAssessments:
		r.BankedAssessments, err = parseInt()
	case FieldFinalResult:
		r.FinalResult = raw
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return err
}
