package application

import (
	"fmt"
	"strings"
	"time"

	alerting "agroalert/internal/alerting/domain"
	forecast "agroalert/internal/forecast/domain"
)

const dateLayout = "2006-01-02"

// BuildMessage renders the notification text for a decided action. Pure;
// probabilities and thresholds render as integer percentages truncated
// toward zero, and the output never carries trailing whitespace. hasPrev
// controls the "rose from X% to Y%" clause on increase alerts: the first
// ever alert for a pair omits it.
func BuildMessage(action, eventType, fieldName string, eventDate time.Time, currentProb, prevProb float64, hasPrev bool, threshold float64) string {
	label := forecast.EventLabel(eventType)
	newPct := percent(currentProb)
	thresholdPct := percent(threshold)
	date := eventDate.Format(dateLayout)

	if action == alerting.ActionRiskEnded {
		return fmt.Sprintf(
			"✅ Riesgo mitigado: probabilidad de %s bajó del %d%% al %d%% en campo %s para el %s. Ya no supera tu umbral de %d%%.",
			label, percent(prevProb), newPct, fieldName, date, thresholdPct,
		)
	}

	deltaText := ""
	if hasPrev {
		deltaText = fmt.Sprintf("Subió del %d%% al %d%%", percent(prevProb), newPct)
	}
	msg := fmt.Sprintf(
		"⚠️ Alerta: probabilidad de %s %d%% en campo %s para el %s. Umbral: %d%%. %s",
		label, newPct, fieldName, date, thresholdPct, deltaText,
	)
	return strings.TrimRight(msg, " ")
}

// percent truncates a [0,1] probability to an integer percentage.
func percent(probability float64) int {
	return int(probability * 100)
}
