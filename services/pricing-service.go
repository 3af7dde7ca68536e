package services

import (
	"fmt"
	"math"
	"time"

	"github.com/aruchith08/AcademiaMarket/models"
)

// Estimate is the suggested price breakdown for a task. It is computed once
// at task creation and persisted; it is never recomputed afterwards, because
// the urgency tier depends on the clock at call time.
type Estimate struct {
	Base    float64 `json:"base"`
	Urgency float64 `json:"urgency"`
	Total   float64 `json:"total"`
	Details string  `json:"details"`
}

const (
	urgencyFeeUnder24h = 100
	urgencyFeeUnder72h = 50
)

// CalculateEstimation computes the suggested price from page count, rate and
// deadline urgency. Inputs are assumed pre-validated by the caller: pages and
// ratePerPage must be positive. The format is intentionally a flat 1.0
// multiplier and does not affect the price.
func CalculateEstimation(pages int, format models.TaskFormat, deadline time.Time, ratePerPage float64) Estimate {
	return calculateEstimationAt(pages, format, deadline, ratePerPage, time.Now())
}

func calculateEstimationAt(pages int, format models.TaskFormat, deadline time.Time, ratePerPage float64, now time.Time) Estimate {
	basePrice := float64(pages) * ratePerPage

	// No price difference between formats.
	const formatMultiplier = 1.0

	diffHours := deadline.Sub(now).Hours()

	var urgencyFee float64
	if diffHours > 0 {
		if diffHours < 24 {
			urgencyFee = urgencyFeeUnder24h
		} else if diffHours < 72 {
			urgencyFee = urgencyFeeUnder72h
		}
	}

	base := math.Round(basePrice * formatMultiplier)
	total := math.Round(basePrice*formatMultiplier + urgencyFee)

	return Estimate{
		Base:    base,
		Urgency: urgencyFee,
		Total:   total,
		Details: fmt.Sprintf("Standard Rate (₹%g/pg x %d pages) + ₹%g urgency fee.", ratePerPage, pages, urgencyFee),
	}
}
