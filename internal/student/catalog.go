package student

// Field name constants. These are the JSON names the service expects and the
// keys used for changed-field tracking.
const (
	FieldCodeModule          = "code_module"
	FieldCodePresentation    = "code_presentation"
	FieldIDStudent           = "id_student"
	FieldGender              = "gender"
	FieldRegion              = "region"
	FieldHighestEducation    = "highest_education"
	FieldIMDBand             = "imd_band"
	FieldAgeBand             = "age_band"
	FieldDisability          = "disability"
	FieldNumOfPrevAttempts   = "num_of_prev_attempts"
	FieldStudiedCredits      = "studied_credits"
	FieldCompletedCourse     = "completed_course"
	FieldWithdrawalStatus    = "withdrawal_status"
	FieldTotalClicks         = "total_clicks"
	FieldAvgClicksPerSession = "avg_clicks_per_session"
	FieldClickVariability    = "click_variability"
	FieldTotalSessions       = "total_sessions"
	FieldActiveDays          = "active_days"
	FieldEngagementDuration  = "engagement_duration"
	FieldDailyEngagementRate = "daily_engagement_rate"
	FieldFirstAccessDay      = "first_access_day"
	FieldLastAccessDay       = "last_access_day"
	FieldAvgAssessmentScore  = "avg_assessment_score"
	FieldScoreConsistency    = "score_consistency"
	FieldTotalAssessments    = "total_assessments"
	FieldFirstSubmission     = "first_submission"
	FieldLastSubmission      = "last_submission"
	FieldBankedAssessments   = "banked_assessments"
	FieldFinalResult         = "final_result"
)

// Kind classifies how a field is entered and parsed.
type Kind int

const (
	KindText Kind = iota
	KindCategorical
	KindInt
	KindFloat
	KindBool
)

// Field groups, in form order.
const (
	GroupIdentity    = "Course & Identity"
	GroupDemographic = "Demographics"
	GroupHistory     = "Academic History"
	GroupEngagement  = "VLE Engagement"
	GroupTemporal    = "Access Timeline"
	GroupAssessment  = "Assessments"
)

// Spec describes one record field for forms and validation.
type Spec struct {
	Name  string
	Label string
	Group string
	Kind  Kind

	// Options holds the closed label set for categorical fields, or known
	// suggestions for free-text fields (code_module, code_presentation).
	Options []string

	// Numeric bounds. Max is ignored unless Bounded is set.
	Min     float64
	Max     float64
	Bounded bool
	Step    float64

	Help string
}

// GenderOptions is the closed gender label set.
var GenderOptions = []string{string(GenderMale), string(GenderFemale)}

// RegionOptions is the closed UK region label set.
var RegionOptions = []string{
	"East Anglian Region",
	"East Midlands Region",
	"Ireland",
	"London Region",
	"North Region",
	"North Western Region",
	"Scotland",
	"South East Region",
	"South Region",
	"South West Region",
	"Wales",
	"West Midlands Region",
	"Yorkshire Region",
}

// EducationOptions is the closed highest-education label set.
var EducationOptions = []string{
	string(EduNoFormal),
	string(EduBelowALevel),
	string(EduALevel),
	string(EduHE),
	string(EduPostGraduate),
}

// IMDBandOptions is the closed deprivation-band label set. The 10-20 band
// has no percent sign in the service schema; preserved as-is.
var IMDBandOptions = []string{
	"0-10%", "10-20", "20-30%", "30-40%", "40-50%",
	"50-60%", "60-70%", "70-80%", "80-90%", "90-100%",
}

// AgeBandOptions is the closed age-band label set.
var AgeBandOptions = []string{string(AgeYoung), string(AgeMiddle), string(AgeSenior)}

// DisabilityOptions is the closed disability flag set.
var DisabilityOptions = []string{string(DisabilityYes), string(DisabilityNo)}

// ModuleOptions and PresentationOptions are suggestions from the OULAD
// corpus. The service accepts any string for these two fields.
var (
	ModuleOptions       = []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG"}
	PresentationOptions = []string{"2013B", "2013J", "2014B", "2014J"}
)

// OutcomeOptions lists the known final results, used only for the optional
// reference field.
var OutcomeOptions = []string{"", "Distinction", "Pass", "Fail", "Withdrawn"}

var catalog = []Spec{
	{Name: FieldCodeModule, Label: "Module code", Group: GroupIdentity, Kind: KindText,
		Options: ModuleOptions, Help: "OULAD course module, e.g. AAA"},
	{Name: FieldCodePresentation, Label: "Presentation", Group: GroupIdentity, Kind: KindText,
		Options: PresentationOptions, Help: "Term code, e.g. 2013J (J=October, B=February)"},
	{Name: FieldIDStudent, Label: "Student ID", Group: GroupIdentity, Kind: KindInt,
		Min: 1, Step: 1, Help: "Positive numeric identifier"},

	{Name: FieldGender, Label: "Gender", Group: GroupDemographic, Kind: KindCategorical,
		Options: GenderOptions},
	{Name: FieldRegion, Label: "Region", Group: GroupDemographic, Kind: KindCategorical,
		Options: RegionOptions},
	{Name: FieldHighestEducation, Label: "Highest education", Group: GroupDemographic, Kind: KindCategorical,
		Options: EducationOptions},
	{Name: FieldIMDBand, Label: "IMD band", Group: GroupDemographic, Kind: KindCategorical,
		Options: IMDBandOptions, Help: "Deprivation decile of the student's area"},
	{Name: FieldAgeBand, Label: "Age band", Group: GroupDemographic, Kind: KindCategorical,
		Options: AgeBandOptions},
	{Name: FieldDisability, Label: "Disability", Group: GroupDemographic, Kind: KindCategorical,
		Options: DisabilityOptions},

	{Name: FieldNumOfPrevAttempts, Label: "Previous attempts", Group: GroupHistory, Kind: KindInt,
		Min: 0, Step: 1},
	{Name: FieldStudiedCredits, Label: "Studied credits", Group: GroupHistory, Kind: KindInt,
		Min: 1, Step: 10},
	{Name: FieldCompletedCourse, Label: "Completed course", Group: GroupHistory, Kind: KindBool},
	{Name: FieldWithdrawalStatus, Label: "Withdrawn", Group: GroupHistory, Kind: KindBool},

	{Name: FieldTotalClicks, Label: "Total clicks", Group: GroupEngagement, Kind: KindFloat,
		Min: 0, Step: 50, Help: "Total VLE clicks across the presentation"},
	{Name: FieldAvgClicksPerSession, Label: "Clicks per session", Group: GroupEngagement, Kind: KindFloat,
		Min: 0, Step: 1},
	{Name: FieldClickVariability, Label: "Click variability", Group: GroupEngagement, Kind: KindFloat,
		Min: 0, Step: 1},
	{Name: FieldTotalSessions, Label: "Total sessions", Group: GroupEngagement, Kind: KindInt,
		Min: 0, Step: 1},
	{Name: FieldActiveDays, Label: "Active days", Group: GroupEngagement, Kind: KindInt,
		Min: 0, Step: 1},
	{Name: FieldEngagementDuration, Label: "Engagement duration", Group: GroupEngagement, Kind: KindFloat,
		Min: 0, Step: 10, Help: "Total minutes of VLE activity"},
	{Name: FieldDailyEngagementRate, Label: "Daily engagement rate", Group: GroupEngagement, Kind: KindFloat,
		Min: 0, Max: 1, Bounded: true, Step: 0.05},

	{Name: FieldFirstAccessDay, Label: "First access day", Group: GroupTemporal, Kind: KindInt,
		Min: 0, Step: 1, Help: "Days from module start"},
	{Name: FieldLastAccessDay, Label: "Last access day", Group: GroupTemporal, Kind: KindInt,
		Min: 0, Step: 1},

	{Name: FieldAvgAssessmentScore, Label: "Avg assessment score", Group: GroupAssessment, Kind: KindFloat,
		Min: 0, Max: 100, Bounded: true, Step: 1},
	{Name: FieldScoreConsistency, Label: "Score consistency", Group: GroupAssessment, Kind: KindFloat,
		Min: 0, Step: 0.5, Help: "Standard deviation of scores"},
	{Name: FieldTotalAssessments, Label: "Total assessments", Group: GroupAssessment, Kind: KindInt,
		Min: 0, Step: 1},
	{Name: FieldFirstSubmission, Label: "First submission day", Group: GroupAssessment, Kind: KindInt,
		Min: 0, Step: 1},
	{Name: FieldLastSubmission, Label: "Last submission day", Group: GroupAssessment, Kind: KindInt,
		Min: 0, Step: 1},
	{Name: FieldBankedAssessments, Label: "Banked assessments", Group: GroupAssessment, Kind: KindInt,
		Min: 0, Step: 1, Help: "Assessments carried over from a previous attempt"},
}

// Catalog returns the full ordered field catalog. The optional final_result
// reference field is not part of the catalog; forms do not collect it.
func Catalog() []Spec {
	out := make([]Spec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the spec for a JSON field name.
func Lookup(name string) (Spec, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Groups returns the distinct group labels in form order.
func Groups() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range catalog {
		if !seen[s.Group] {
			seen[s.Group] = true
			out = append(out, s.Group)
		}
	}
	return out
}
