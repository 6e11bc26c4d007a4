package navigation

import (
	"fmt"

	"golang.org/x/text/language"

	"landmark-tour-service/internal/config"
	"landmark-tour-service/internal/domain"
)

// Policy holds the tunable radii and flags. All comparisons against radii are strict.
type Policy struct {
	PreAlertRadius            float64
	ArrivalRadius             float64
	LandmarkArrivalRadius     float64
	LandmarkDescriptionRadius float64
	// When set, reaching the first stop continues straight to the second segment.
	AutoContinueFirstStop bool
	Modes                 []domain.TravelMode
	Locale                language.Tag
}

func DefaultPolicy() Policy {
	return Policy{
		PreAlertRadius:            60,
		ArrivalRadius:             25,
		LandmarkArrivalRadius:     50,
		LandmarkDescriptionRadius: 15,
		AutoContinueFirstStop:     true,
		Modes:                     domain.DefaultModePreference,
		Locale:                    language.English,
	}
}

// PolicyFromConfig builds a Policy from the navigation config section.
func PolicyFromConfig(cfg config.NavigationConfig) (Policy, error) {
	modes, err := domain.ParseModes(cfg.ModePreference)
	if err != nil {
		return Policy{}, fmt.Errorf("navigation policy: %w", err)
	}

	tag := language.English
	if cfg.Locale != "" {
		tag, err = language.Parse(cfg.Locale)
		if err != nil {
			return Policy{}, fmt.Errorf("navigation policy: locale %q: %w", cfg.Locale, err)
		}
	}

	return Policy{
		PreAlertRadius:            cfg.PreAlertRadius,
		ArrivalRadius:             cfg.ArrivalRadius,
		LandmarkArrivalRadius:     cfg.LandmarkArrivalRadius,
		LandmarkDescriptionRadius: cfg.LandmarkDescriptionRadius,
		AutoContinueFirstStop:     cfg.AutoContinueFirstStop,
		Modes:                     modes,
		Locale:                    tag,
	}, nil
}
