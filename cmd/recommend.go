package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sensai"
	"sensai/internal/coach"
	"sensai/internal/models"
)

var errBadFlag = errors.New("invalid flag")

func newRecommendCmd() *cobra.Command {
	req := sensai.PreviewRequest{
		TimerMinutes:       models.DefaultTimerMinutes,
		TemperatureCelsius: models.DefaultTemperatureC,
		Rating:             5,
		Heat:               string(models.HeatJustRight),
	}
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print the local recommendation for a finished session",
		Example: `  sensai recommend --rating 8 --heat "Just right" --temperature 75 --timer 15 --oil eucalyptus`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Rating < models.MinRating || req.Rating > models.MaxRating {
				return fmt.Errorf("%w: --rating must be within %d..%d", errBadFlag, models.MinRating, models.MaxRating)
			}
			switch models.HeatLevel(req.Heat) {
			case models.HeatTooCold, models.HeatJustRight, models.HeatTooHot:
			default:
				return fmt.Errorf("%w: --heat must be %q, %q or %q", errBadFlag, models.HeatTooCold, models.HeatJustRight, models.HeatTooHot)
			}
			s := req.Session()
			_, err := fmt.Fprintln(cmd.OutOrStdout(), coach.Recommend(s))
			return err
		},
	}
	f := cmd.Flags()
	f.IntVar(&req.Rating, "rating", req.Rating, "session rating")
	f.StringVar(&req.Heat, "heat", req.Heat, `"Too cold", "Just right" or "Too hot"`)
	f.IntVar(&req.TemperatureCelsius, "temperature", req.TemperatureCelsius, "sauna temperature in °C")
	f.IntVar(&req.TimerMinutes, "timer", req.TimerMinutes, "session length in minutes")
	f.BoolVar(&req.MusicEnabled, "music", false, "music was on")
	f.StringVar(&req.Oil, "oil", "", "aromatherapy oil used")
	return cmd
}
