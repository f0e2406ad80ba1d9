package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

type mockExportLessonRepo struct {
	lessons []models.LessonDetail
}

func (m *mockExportLessonRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.LessonDetail, error) {
	return m.lessons, nil
}

func exportFixture() *ExportService {
	timeslots := &mockTimeslotRepo{items: map[string]*models.Timeslot{
		"slot-1": {ID: "slot-1", TeacherID: "teacher-1", DayOfWeek: 1, StartMinutes: 540, EndMinutes: 600, Format: models.LessonOnline, IsBooked: true},
		"slot-2": {ID: "slot-2", TeacherID: "teacher-1", DayOfWeek: 3, StartMinutes: 840, EndMinutes: 900, Format: models.LessonInPerson},
	}}
	lessons := &mockExportLessonRepo{lessons: []models.LessonDetail{
		{
			Lesson:         models.Lesson{ID: "lesson-1", TeacherID: "teacher-1", TimeslotID: "slot-1"},
			StudentName:    "Sam Lee",
			InstrumentName: "Piano",
		},
	}}
	return NewExportService(timeslots, lessons, zap.NewNop())
}

func TestExportServiceWeeklyScheduleCSV(t *testing.T) {
	service := exportFixture()

	out, err := service.WeeklyScheduleCSV(context.Background(), "teacher-1")
	require.NoError(t, err)

	csv := string(out)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Start,End,Format,Status,Student,Instrument", strings.TrimSpace(lines[0]))
	assert.Contains(t, csv, "Monday,09:00,10:00,ONLINE,Booked,Sam Lee,Piano")
	assert.Contains(t, csv, "Wednesday,14:00,15:00,IN_PERSON,Open")
}

func TestExportServiceWeeklySchedulePDF(t *testing.T) {
	service := exportFixture()

	out, err := service.WeeklySchedulePDF(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, strings.HasPrefix(string(out[:5]), "%PDF-"))
}
