package skillgraph

// Subject represents a math content strand.
type Subject string

const (
	SubjectNumberPlace Subject = "number-and-place-value"
	SubjectAddSub      Subject = "addition-and-subtraction"
	SubjectMultDiv     Subject = "multiplication-and-division"
	SubjectFractions   Subject = "fractions"
	SubjectMeasurement Subject = "measurement"
)

// AllSubjects returns all subjects in display order.
func AllSubjects() []Subject {
	return []Subject{
		SubjectNumberPlace,
		SubjectAddSub,
		SubjectMultDiv,
		SubjectFractions,
		SubjectMeasurement,
	}
}

// SubjectDisplayName returns a human-readable name for a subject.
func SubjectDisplayName(s Subject) string {
	switch s {
	case SubjectNumberPlace:
		return "Number & Place Value"
	case SubjectAddSub:
		return "Addition & Subtraction"
	case SubjectMultDiv:
		return "Multiplication & Division"
	case SubjectFractions:
		return "Fractions"
	case SubjectMeasurement:
		return "Measurement"
	default:
		return string(s)
	}
}

// DefaultMasteryThreshold applies to skills seeded without an explicit one.
const DefaultMasteryThreshold = 0.9

// DefaultBracketWidth is the grade span a diagnostic samples from.
const DefaultBracketWidth = 3

// Skill represents a single math skill node in the graph.
// Skills are immutable once the graph is loaded.
type Skill struct {
	ID            string   `json:"id" db:"id"`
	Name          string   `json:"name" db:"name"`
	Grade         int      `json:"grade" db:"grade"`
	Subject       Subject  `json:"subject" db:"subject"`
	Prerequisites []string `json:"prerequisites" db:"-"`
	Threshold     float64  `json:"threshold" db:"threshold"`
}
