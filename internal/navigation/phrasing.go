package navigation

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"landmark-tour-service/internal/domain"
)

// phraser renders spoken text with locale-aware number formatting.
type phraser struct {
	p *message.Printer
}

func newPhraser(tag language.Tag) phraser {
	return phraser{p: message.NewPrinter(tag)}
}

// direction prefixes long steps with the distance still to cover.
func (ph phraser) direction(step domain.Step, preAlert float64) string {
	if step.DistanceMeters > preAlert {
		return ph.p.Sprintf("In %d meters, %s", int(math.Round(step.DistanceMeters)), step.Instruction)
	}
	return step.Instruction
}

func (ph phraser) heading(lm domain.Landmark) string {
	return ph.p.Sprintf("Now heading towards %s.", lm.ID)
}

func (ph phraser) arrival(lm domain.Landmark) string {
	return joinSentences(ph.p.Sprintf("You have arrived at %s.", lm.ID), lm.Description)
}

func (ph phraser) destination(lm domain.Landmark) string {
	return ph.p.Sprintf("You have reached %s.", lm.ID)
}

func (ph phraser) nearby(lm domain.Landmark) string {
	return joinSentences(ph.p.Sprintf("You are passing %s.", lm.ID), lm.Description)
}

func (ph phraser) complete() string {
	return ph.p.Sprintf("Tour complete.")
}

func joinSentences(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
