package service

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"sensai"
	"sensai/internal/coach"
	"sensai/internal/models"
	"sensai/internal/stats"
)

const (
	sheetSessions = "Sessions"
	sheetSensors  = "Sensor history"
	exportTime    = "2006-01-02 15:04:05"
)

type sessionLoader interface {
	Load(ctx context.Context, userID string) ([]models.SessionData, error)
}

type HistoryService struct {
	sessions sessionLoader
	advisor  coach.Advisor
}

func NewHistoryService(sessions sessionLoader, advisor coach.Advisor) *HistoryService {
	if advisor == nil {
		advisor = coach.Local{}
	}
	return &HistoryService{sessions: sessions, advisor: advisor}
}

func (s *HistoryService) Sessions(ctx context.Context, userID int) ([]models.SessionData, error) {
	return s.sessions.Load(ctx, strconv.Itoa(userID))
}

func (s *HistoryService) Stats(ctx context.Context, userID int) (models.Stats, error) {
	list, err := s.Sessions(ctx, userID)
	if err != nil {
		return models.Stats{}, err
	}
	return stats.Recompute(list), nil
}

// Preview advises on a hypothetical session without recording anything.
func (s *HistoryService) Preview(ctx context.Context, in models.SessionData) sensai.PreviewResponse {
	return sensai.PreviewResponse{
		Recommendation:       s.advisor.SessionAdvice(ctx, in),
		SuggestedTemperature: coach.SuggestedTemperature(in),
		NextSettings:         coach.RecommendedSettings(&in),
	}
}

// Export writes the user's sessions as an xlsx workbook: one sheet of
// sessions and one of their sensor samples.
func (s *HistoryService) Export(ctx context.Context, userID int, w io.Writer) error {
	list, err := s.Sessions(ctx, userID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSessions); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetSensors); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeRow(f, sheetSessions, 1, []any{
		"#", "Date", "Timer (min)", "Temperature (°C)", "Music", "Rating", "Heat", "Oil", "Thoughts", "Samples",
	}); err != nil {
		return err
	}
	if err := writeRow(f, sheetSensors, 1, []any{"Session #", "Time", "Temperature (°C)", "Humidity (%)"}); err != nil {
		return err
	}

	sensorRow := 2
	for i, sess := range list {
		n := i + 1
		music := "No"
		if sess.MusicEnabled {
			music = "Yes"
		}
		if err := writeRow(f, sheetSessions, n+1, []any{
			n, sess.Timestamp.UTC().Format(exportTime), sess.TimerMinutes, sess.TemperatureCelsius,
			music, sess.Rating, string(sess.Heat), sess.Oil, sess.Thoughts, len(sess.SensorHistory),
		}); err != nil {
			return err
		}
		for _, rec := range sess.SensorHistory {
			if err := writeRow(f, sheetSensors, sensorRow, []any{
				n, rec.Time.UTC().Format(exportTime), rec.Temperature, rec.Humidity,
			}); err != nil {
				return err
			}
			sensorRow++
		}
	}

	if err := f.SetPanes(sheetSessions, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze panes: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
