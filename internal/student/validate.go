package student

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors maps a field's JSON name to its validation message. Empty map
// means the record is valid.
type FieldErrors map[string]string

// Error joins all field messages into one line, ordered by field name.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ""
	}
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, fe[name]))
	}
	return strings.Join(parts, "; ")
}

// CheckFields validates every field and returns one message per offending
// field, so a form can mark all of them at once. It mirrors what the service
// enforces, including the cross-field consistency rules, so bad input is
// caught before a round-trip.
func (r Record) CheckFields() FieldErrors {
	fe := make(FieldErrors)

	if strings.TrimSpace(r.CodeModule) == "" {
		fe[FieldCodeModule] = "required"
	}
	if strings.TrimSpace(r.CodePresentation) == "" {
		fe[FieldCodePresentation] = "required"
	}
	if r.IDStudent <= 0 {
		fe[FieldIDStudent] = "must be a positive ID"
	}

	checkLabel := func(name, value string, options []string) {
		for _, opt := range options {
			if value == opt {
				return
			}
		}
		fe[name] = fmt.Sprintf("%q is not one of %s", value, strings.Join(options, ", "))
	}
	checkLabel(FieldGender, string(r.Gender), GenderOptions)
	checkLabel(FieldRegion, string(r.Region), RegionOptions)
	checkLabel(FieldHighestEducation, string(r.HighestEducation), EducationOptions)
	checkLabel(FieldIMDBand, string(r.IMDBand), IMDBandOptions)
	checkLabel(FieldAgeBand, string(r.AgeBand), AgeBandOptions)
	checkLabel(FieldDisability, string(r.Disability), DisabilityOptions)

	if r.NumOfPrevAttempts < 0 {
		fe[FieldNumOfPrevAttempts] = "cannot be negative"
	}
	if r.StudiedCredits <= 0 {
		fe[FieldStudiedCredits] = "must be positive"
	}

	if r.TotalClicks < 0 {
		fe[FieldTotalClicks] = "cannot be negative"
	}
	if r.AvgClicksPerSession < 0 {
		fe[FieldAvgClicksPerSession] = "cannot be negative"
	}
	if r.ClickVariability < 0 {
		fe[FieldClickVariability] = "cannot be negative"
	}
	if r.TotalSessions < 0 {
		fe[FieldTotalSessions] = "cannot be negative"
	}
	if r.ActiveDays < 0 {
		fe[FieldActiveDays] = "cannot be negative"
	}
	if r.EngagementDuration < 0 {
		fe[FieldEngagementDuration] = "cannot be negative"
	}
	if r.DailyEngagementRate < 0 || r.DailyEngagementRate > 1 {
		fe[FieldDailyEngagementRate] = "must be between 0 and 1"
	}

	if r.FirstAccessDay < 0 {
		fe[FieldFirstAccessDay] = "cannot be negative"
	}
	if r.LastAccessDay < 0 {
		fe[FieldLastAccessDay] = "cannot be negative"
	}

	if r.AvgAssessmentScore < 0 || r.AvgAssessmentScore > 100 {
		fe[FieldAvgAssessmentScore] = "must be between 0 and 100"
	}
	if r.ScoreConsistency < 0 {
		fe[FieldScoreConsistency] = "cannot be negative"
	}
	if r.TotalAssessments < 0 {
		fe[FieldTotalAssessments] = "cannot be negative"
	}
	if r.FirstSubmission < 0 {
		fe[FieldFirstSubmission] = "cannot be negative"
	}
	if r.LastSubmission < 0 {
		fe[FieldLastSubmission] = "cannot be negative"
	}
	if r.BankedAssessments < 0 {
		fe[FieldBankedAssessments] = "cannot be negative"
	}

	// Cross-field consistency, same rules the service applies.
	if _, bad := fe[FieldFirstAccessDay]; !bad {
		if r.FirstAccessDay > r.LastAccessDay {
			fe[FieldFirstAccessDay] = "first access cannot be after last access"
		}
	}
	if _, bad := fe[FieldFirstSubmission]; !bad {
		if r.TotalAssessments > 0 && r.FirstSubmission > r.LastSubmission {
			fe[FieldFirstSubmission] = "first submission cannot be after last submission"
		}
	}

	return fe
}

// Validate returns nil for a valid record, or a single error listing every
// offending field.
func (r Record) Validate() error {
	fe := r.CheckFields()
	if len(fe) == 0 {
		return nil
	}
	return fmt.Errorf("invalid student record: %s", fe.Error())
}
