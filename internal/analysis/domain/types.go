package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AnalysisStatus is the lifecycle state of an analysis job.
type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "pending"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// Claimable reports whether a worker may take the job. Completed jobs
// stay completed; processing jobs belong to another worker.
func (s AnalysisStatus) Claimable() bool {
	return s == StatusPending || s == StatusFailed
}

// CareerType is one of the three career paths every analysis proposes.
type CareerType string

const (
	CareerTypeCorporate        CareerType = "corporate"        // 企業転職
	CareerTypeFreelance        CareerType = "freelance"        // フリーランス
	CareerTypeEntrepreneurship CareerType = "entrepreneurship" // 起業
)

// ValidCareerType reports whether the model returned a known path type.
func ValidCareerType(s string) bool {
	switch CareerType(s) {
	case CareerTypeCorporate, CareerTypeFreelance, CareerTypeEntrepreneurship:
		return true
	default:
		return false
	}
}

// StringList stores a string slice as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// AnalysisJob is the persisted record of one career analysis request.
type AnalysisJob struct {
	ID             string         `db:"id" json:"id"`
	UserID         string         `db:"user_id" json:"user_id"`
	DocumentID     string         `db:"document_id" json:"document_id"`
	Status         AnalysisStatus `db:"status" json:"status"`
	ErrorMessage   *string        `db:"error_message" json:"error_message,omitempty"`
	ProcessingTime *float64       `db:"processing_time" json:"processing_time,omitempty"`
	RetryCount     int            `db:"retry_count" json:"retry_count"`
	// SkillGaps is the union of gaps across all recommended paths.
	SkillGaps StringList `db:"skill_gaps" json:"skill_gaps,omitempty"`
	// RawResponse keeps the parsed model output for debugging.
	RawResponse []byte     `db:"raw_response" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// CareerRecommendation is one proposed career path for an analysis.
type CareerRecommendation struct {
	ID                   string     `db:"id" json:"id"`
	AnalysisID           string     `db:"analysis_id" json:"analysis_id"`
	CareerType           CareerType `db:"career_type" json:"career_type"`
	Title                string     `db:"title" json:"title"`
	Description          string     `db:"description" json:"description"`
	RequiredSkills       StringList `db:"required_skills" json:"required_skills"`
	SkillMatchPercentage float64    `db:"skill_match_percentage" json:"skill_match_percentage"`
	SkillGaps            StringList `db:"skill_gaps" json:"skill_gaps,omitempty"`
	SalaryRangeMin       *int       `db:"salary_range_min" json:"salary_range_min,omitempty"`
	SalaryRangeMax       *int       `db:"salary_range_max" json:"salary_range_max,omitempty"`
	MarketDemand         *string    `db:"market_demand" json:"market_demand,omitempty"`
	NextSteps            StringList `db:"next_steps" json:"next_steps,omitempty"`
	ConfidenceScore      float64    `db:"confidence_score" json:"confidence_score"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
}

// SalaryRange is the estimated yearly salary band in JPY.
type SalaryRange struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// CareerPath is one entry of the model's career_paths array, as the
// model emits it. Pointer fields distinguish absent from zero so the
// orchestrator can apply defaults.
type CareerPath struct {
	Type                 string       `json:"type"`
	Title                string       `json:"title"`
	Description          string       `json:"description"`
	RequiredSkills       []string     `json:"required_skills"`
	SkillMatchPercentage *float64     `json:"skill_match_percentage"`
	SkillGaps            []string     `json:"skill_gaps"`
	SalaryRange          *SalaryRange `json:"salary_range"`
	MarketDemand         string       `json:"market_demand"`
	ConfidenceScore      *float64     `json:"confidence_score"`
	NextSteps            []string     `json:"next_steps"`
}

// MatchPercentage returns the skill match, defaulting to 0 when the
// model omitted it.
func (p CareerPath) MatchPercentage() float64 {
	if p.SkillMatchPercentage == nil {
		return 0
	}
	return *p.SkillMatchPercentage
}

// Confidence returns the confidence score, defaulting to 0.5 when the
// model omitted it.
func (p CareerPath) Confidence() float64 {
	if p.ConfidenceScore == nil {
		return 0.5
	}
	return *p.ConfidenceScore
}

// AnalysisResult is the model's full JSON answer.
type AnalysisResult struct {
	ExtractedSkills   []string     `json:"extracted_skills"`
	ExperienceSummary string       `json:"experience_summary"`
	CareerPaths       []CareerPath `json:"career_paths"`
	OverallInsights   string       `json:"overall_insights"`
}
