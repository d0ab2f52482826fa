package models

// The fixed set of Student Learning Outcomes a requester can pick from.
const (
	SLOResearchProcess  = "Develop a research process"
	SLOSearchStrategies = "Demonstrate effective search strategies"
	SLOEvaluateInfo     = "Evaluate Information"
	SLOArgumentEvidence = "Develop an argument supported by evidence"
	SLOEthicalLegalUse  = "Use information ethically and legally"
)

// MaxSLOsPerSession caps how many outcomes one session may carry.
const MaxSLOsPerSession = 3

var AllSLOs = []string{
	SLOResearchProcess,
	SLOSearchStrategies,
	SLOEvaluateInfo,
	SLOArgumentEvidence,
	SLOEthicalLegalUse,
}

func ValidSLO(s string) bool {
	for _, known := range AllSLOs {
		if s == known {
			return true
		}
	}
	return false
}
