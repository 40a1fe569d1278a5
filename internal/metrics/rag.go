package metrics

import "github.com/AngelCh415/revops-risk/internal/models"

// Umbrales RAG; fijos.
const (
	GreenThreshold  = 90.0
	YellowThreshold = 70.0
)

// Classify maps a percentage onto exactly one RAG status.
func Classify(pct float64) models.RAG {
	switch {
	case pct >= GreenThreshold:
		return models.RAGGreen
	case pct >= YellowThreshold:
		return models.RAGYellow
	default:
		return models.RAGRed
	}
}

func classifyPtr(pct float64) *models.RAG {
	r := Classify(pct)
	return &r
}
