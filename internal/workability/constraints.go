package workability

// ConstraintSeverity is how strongly a constraint restricts work.
type ConstraintSeverity string

const (
	SeverityBlocking ConstraintSeverity = "blocking"
	SeverityLimiting ConstraintSeverity = "limiting"
	SeverityAdvisory ConstraintSeverity = "advisory"
)

// constraintThreshold is the factor score below which a constraint is emitted.
const constraintThreshold = 50

// Constraint is a restriction derived from a poorly scoring factor.
type Constraint struct {
	Factor              FactorName         `json:"factor"`
	Severity            ConstraintSeverity `json:"severity"`
	Description         string             `json:"description"`
	EstimatedDelayHours int                `json:"estimatedDelayHours"`
	RecommendedAction   string             `json:"recommendedAction"`
}

// Constraints returns one constraint for every factor scoring below 50.
func Constraints(factors []Factor) []Constraint {
	constraints := make([]Constraint, 0)
	for _, f := range factors {
		if f.Score >= constraintThreshold {
			continue
		}
		severity, delay := severityFor(f.Impact)
		constraints = append(constraints, Constraint{
			Factor:              f.Name,
			Severity:            severity,
			Description:         f.Description,
			EstimatedDelayHours: delay,
			RecommendedAction:   recommendedAction(f),
		})
	}
	return constraints
}

func severityFor(impact Impact) (ConstraintSeverity, int) {
	switch impact {
	case ImpactCritical:
		return SeverityBlocking, 4
	case ImpactHigh:
		return SeverityLimiting, 2
	default:
		return SeverityAdvisory, 0
	}
}

func recommendedAction(f Factor) string {
	switch f.Name {
	case FactorTemperature:
		if f.CurrentValue < f.Threshold.Min {
			return "wait for temperature to rise above minimum threshold"
		}
		return "schedule work for cooler hours and monitor mix temperature"
	case FactorPrecipitation:
		return "postpone work until precipitation stops and surface dries"
	case FactorWind:
		return "suspend crane, spray and lifting operations until wind subsides"
	case FactorHumidity:
		return "adjust curing procedures for current humidity"
	case FactorVisibility:
		return "delay work until visibility improves or add traffic control lighting"
	default:
		return "monitor conditions"
	}
}
