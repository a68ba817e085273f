package companion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensai/internal/models"
)

func TestDefaultScript_CoversEveryState(t *testing.T) {
	s := DefaultScript()
	for _, st := range allStates() {
		_, err := s.Line(st, models.Stats{})
		require.NoError(t, err, "%s", st.Name())
		if _, ok := s.lines[st.Name()]; !ok {
			switch st.(type) {
			case NewbieRecommendationsState, ActiveSessionState, ShowRecommendationsState:
			default:
				t.Errorf("no line for %s", st.Name())
			}
		}
	}
}

func TestScript_Templates(t *testing.T) {
	s := DefaultScript()

	line, err := s.Line(RecommendedSettingsState{Defaults: models.SaunaSettings{TimerMinutes: 12, TemperatureCelsius: 78}},
		models.Stats{AvgRating: 7.5})
	require.NoError(t, err)
	assert.Equal(t, "Your average rating is 7.5 out of 10. Based on your last session, I suggest 78°C for 12 minutes.", line)

	line, err = s.Line(SessionTimerState{Run: newRun(models.DefaultSettings())}, models.Stats{})
	require.NoError(t, err)
	assert.Contains(t, line, "15 minutes")
}

func TestScript_PayloadLines(t *testing.T) {
	s := DefaultScript()

	line, _ := s.Line(StatsDisplayState{Recommendation: "Try 77°C."}, models.Stats{})
	assert.Equal(t, "Try 77°C.", line)
	line, _ = s.Line(StatsDisplayState{}, models.Stats{})
	assert.Equal(t, "Here are your session statistics.", line)
	line, _ = s.Line(ShowRecommendationsState{}, models.Stats{})
	assert.Empty(t, line)
	line, _ = s.Line(StartPointState{}, models.Stats{})
	assert.Empty(t, line)
}

func TestLoadScript_OverridesSomeLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.yml")
	require.NoError(t, os.WriteFile(path, []byte("lines:\n  Goodbye: \"Bye {{.Stats.TotalSessions}}\"\n"), 0o600))

	s, err := LoadScript(path)
	require.NoError(t, err)
	line, _ := s.Line(GoodbyeState{}, models.Stats{TotalSessions: 3})
	assert.Equal(t, "Bye 3", line)
	line, _ = s.Line(FeedbackFormState{}, models.Stats{})
	assert.Equal(t, "Welcome back. How was your sauna?", line)

	_, err = ParseScript([]byte("lines:\n  Goodbye: \"{{.Broken\"\n"))
	assert.Error(t, err)
}

func TestParseFlow(t *testing.T) {
	f, err := ParseFlow(" Coached ")
	require.NoError(t, err)
	assert.Equal(t, FlowCoached, f)
	f, err = ParseFlow("")
	require.NoError(t, err)
	assert.Equal(t, FlowClassic, f)
	_, err = ParseFlow("wizard")
	assert.Error(t, err)
}
