package record

// SkillLevel is the canonical mastery scale for competence evaluations.
// Backends with finer scales are mapped down by their adapter.
type SkillLevel string

const (
	SkillNotReached SkillLevel = "not_reached"
	SkillFragile    SkillLevel = "fragile"
	SkillSufficient SkillLevel = "sufficient"
	SkillGood       SkillLevel = "good"
	SkillExcellent  SkillLevel = "excellent"
	SkillAbsent     SkillLevel = "absent"
)

// Skill is one evaluated competence inside an evaluation.
type Skill struct {
	Domain string     `json:"domain,omitempty"`
	Name   string     `json:"name"`
	Level  SkillLevel `json:"level"`
}

// Evaluation is one canonical competence evaluation session.
type Evaluation struct {
	ID          string  `json:"id"`
	SubjectID   string  `json:"subject_id,omitempty"`
	SubjectName string  `json:"subject_name"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	PeriodName  string  `json:"period_name"`
	Coefficient float64 `json:"coefficient"`
	Timestamp   int64   `json:"timestamp"`
	Skills      []Skill `json:"skills"`
}
