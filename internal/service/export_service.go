package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/schedule"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
	"github.com/seanma333/project-metronome-app-sub000/pkg/export"
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var scheduleHeaders = []string{"Day", "Start", "End", "Format", "Status", "Student", "Instrument"}

type exportTimeslotRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Timeslot, error)
}

type exportLessonRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.LessonDetail, error)
}

// ExportService renders a teacher's weekly schedule as CSV or PDF.
type ExportService struct {
	timeslots exportTimeslotRepository
	lessons   exportLessonRepository
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(timeslots exportTimeslotRepository, lessons exportLessonRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timeslots: timeslots,
		lessons:   lessons,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// WeeklyScheduleCSV renders the teacher's grid as CSV.
func (s *ExportService) WeeklyScheduleCSV(ctx context.Context, teacherID string) ([]byte, error) {
	data, err := s.dataset(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return out, nil
}

// WeeklySchedulePDF renders the teacher's grid as PDF.
func (s *ExportService) WeeklySchedulePDF(ctx context.Context, teacherID string) ([]byte, error) {
	data, err := s.dataset(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	out, err := s.pdf.Render(data, "Weekly Schedule")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return out, nil
}

// dataset flattens the grid into rows ordered by day then start time, with
// booked slots annotated from their lesson.
func (s *ExportService) dataset(ctx context.Context, teacherID string) (export.Dataset, error) {
	slots, err := s.timeslots.ListByTeacher(ctx, teacherID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timeslots")
	}
	lessons, err := s.lessons.ListByTeacher(ctx, teacherID)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	bySlot := make(map[string]models.LessonDetail, len(lessons))
	for _, l := range lessons {
		bySlot[l.TimeslotID] = l
	}

	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		row := map[string]string{
			"Day":    dayNames[slot.DayOfWeek%7],
			"Start":  schedule.FormatMinutes(slot.StartMinutes),
			"End":    schedule.FormatMinutes(slot.EndMinutes),
			"Format": string(slot.Format),
			"Status": "Open",
		}
		if lesson, ok := bySlot[slot.ID]; ok {
			row["Status"] = "Booked"
			row["Student"] = lesson.StudentName
			row["Instrument"] = lesson.InstrumentName
		} else if slot.IsBooked {
			row["Status"] = "Booked"
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: scheduleHeaders, Rows: rows}, nil
}
