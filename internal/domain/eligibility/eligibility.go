// Package eligibility scores an education-loan applicant profile with a fixed
// weight point system and explains each factor.
//
// Score is a pure function: the same profile always yields the same result,
// and no input is rejected. Out-of-range or unrecognized values fall into the
// lowest branch of the factor they belong to.
package eligibility

import "strings"

// Factor maxima. They sum to MaxScore.
const (
	MaxAgePoints      = 25
	MaxIncomePoints   = 30
	MaxCoursePoints   = 25
	MaxAcademicPoints = 20
	MaxScore          = MaxAgePoints + MaxIncomePoints + MaxCoursePoints + MaxAcademicPoints
)

// Age window that earns the age points, inclusive.
const (
	MinPreferredAge = 18
	MaxPreferredAge = 35
)

// Income thresholds on the annual family income lower bound, in rupees.
const (
	HighIncomeThreshold   = 300000
	MediumIncomeThreshold = 150000
)

// Tier thresholds, lower bound inclusive.
const (
	ExcellentThreshold = 80
	GoodThreshold      = 60
	AverageThreshold   = 40
)

// Tier is the categorical eligibility bucket derived from the score.
type Tier string

// Tiers from best to worst.
const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierAverage   Tier = "average"
	TierPoor      Tier = "poor"
)

// Status is the qualitative reading of a single factor.
type Status string

// Factor statuses.
const (
	StatusGood    Status = "good"
	StatusAverage Status = "average"
	StatusPoor    Status = "poor"
)

// Factor names in evaluation order.
const (
	FactorAge      = "Age"
	FactorIncome   = "Family Income"
	FactorCourse   = "Course Type"
	FactorAcademic = "Academic Record"
)

// Course types offered in the application form.
const (
	CourseEngineering = "engineering"
	CourseMedical     = "medical"
	CourseMBA         = "mba"
	CourseLaw         = "law"
	CourseScience     = "science"
	CourseCommerce    = "commerce"
	CourseArts        = "arts"
	CourseOther       = "other"
)

// Academic record categories.
const (
	AcademicExcellent    = "excellent"
	AcademicGood         = "good"
	AcademicAverage      = "average"
	AcademicBelowAverage = "below-average"
)

// highDemandCourses earn the full course points.
var highDemandCourses = map[string]struct{}{
	CourseEngineering: {},
	CourseMedical:     {},
	CourseMBA:         {},
}

// Profile is the applicant input to the scorer.
type Profile struct {
	Age                int     `json:"age"`
	AnnualFamilyIncome float64 `json:"annual_family_income"`
	CourseType         string  `json:"course_type"`
	AcademicRecord     string  `json:"academic_record"`
}

// Factor explains one sub-score.
type Factor struct {
	Name        string `json:"name"`
	Status      Status `json:"status"`
	Points      int    `json:"points"`
	MaxPoints   int    `json:"max_points"`
	Explanation string `json:"explanation"`
}

// Result is the scorer output. It is built fresh on every call.
type Result struct {
	Score           int      `json:"score"`
	Tier            Tier     `json:"tier"`
	Message         string   `json:"message"`
	Factors         []Factor `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// Score evaluates the four factors in order (age, income, course, academic
// record), sums them and maps the total to a tier.
func Score(p Profile) Result {
	factors := []Factor{
		ageFactor(p.Age),
		incomeFactor(p.AnnualFamilyIncome),
		courseFactor(p.CourseType),
		academicFactor(p.AcademicRecord),
	}

	total := 0
	for _, f := range factors {
		total += f.Points
	}

	tier := TierFor(total)
	guide := guidance[tier]
	recs := make([]string, len(guide.recommendations))
	copy(recs, guide.recommendations)

	return Result{
		Score:           total,
		Tier:            tier,
		Message:         guide.message,
		Factors:         factors,
		Recommendations: recs,
	}
}

// TierFor maps a score to its tier, checking thresholds top-down.
func TierFor(score int) Tier {
	switch {
	case score >= ExcellentThreshold:
		return TierExcellent
	case score >= GoodThreshold:
		return TierGood
	case score >= AverageThreshold:
		return TierAverage
	default:
		return TierPoor
	}
}

func ageFactor(age int) Factor {
	f := Factor{Name: FactorAge, MaxPoints: MaxAgePoints}
	if age >= MinPreferredAge && age <= MaxPreferredAge {
		f.Points = MaxAgePoints
		f.Status = StatusGood
		f.Explanation = "Age is within the preferred range of 18 to 35 years."
		return f
	}
	f.Status = StatusPoor
	f.Explanation = "Age is outside the preferred range of 18 to 35 years; lenders may ask for a co-applicant."
	return f
}

func incomeFactor(income float64) Factor {
	f := Factor{Name: FactorIncome, MaxPoints: MaxIncomePoints}
	switch {
	case income >= HighIncomeThreshold:
		f.Points = 30
		f.Status = StatusGood
		f.Explanation = "Family income of 3 lakh or more supports a strong repayment capacity."
	case income >= MediumIncomeThreshold:
		f.Points = 20
		f.Status = StatusAverage
		f.Explanation = "Family income between 1.5 and 3 lakh supports a moderate loan amount."
	default:
		f.Points = 10
		f.Status = StatusPoor
		f.Explanation = "Family income below 1.5 lakh may limit the sanctioned amount."
	}
	return f
}

func courseFactor(course string) Factor {
	f := Factor{Name: FactorCourse, MaxPoints: MaxCoursePoints}
	if _, ok := highDemandCourses[normalize(course)]; ok {
		f.Points = 25
		f.Status = StatusGood
		f.Explanation = "High-demand course with strong placement outcomes."
		return f
	}
	f.Points = 15
	f.Status = StatusAverage
	f.Explanation = "Standard course; lenders assess it case by case."
	return f
}

func academicFactor(record string) Factor {
	f := Factor{Name: FactorAcademic, MaxPoints: MaxAcademicPoints}
	switch normalize(record) {
	case AcademicExcellent:
		f.Points = 20
		f.Status = StatusGood
		f.Explanation = "Excellent academic record strengthens the application."
	case AcademicGood:
		f.Points = 15
		f.Status = StatusAverage
		f.Explanation = "Good academic record meets most lender criteria."
	default:
		f.Points = 5
		f.Status = StatusPoor
		f.Explanation = "Academic record may need supporting documents such as entrance scores."
	}
	return f
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
