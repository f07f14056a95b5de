package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cricketpark/internal/domain"
	"cricketpark/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	listSheet     = "Bookings"
	scheduleSheet = "Schedule"
	maxReportDays = 366
)

// BookingSource supplies the rows of a report.
type BookingSource interface {
	ListActiveBookingsByDateRange(ctx context.Context, from, to time.Time) ([]models.Booking, error)
}

// VenueLister names the venues that appear in a report.
type VenueLister interface {
	ListActiveVenues(ctx context.Context) ([]models.Venue, error)
}

// Reporter renders bookings for a date range as an xlsx workbook.
type Reporter struct {
	bookings BookingSource
	venues   VenueLister
	dir      string
	logger   *zerolog.Logger
}

func NewReporter(bookings BookingSource, venues VenueLister, dir string, logger *zerolog.Logger) *Reporter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Reporter{bookings: bookings, venues: venues, dir: dir, logger: logger}
}

// ValidateRange checks an inclusive report range.
func ValidateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: from and to are required", domain.ErrInvalidInput)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: to must not be before from", domain.ErrInvalidInput)
	}
	if to.Sub(from) > maxReportDays*24*time.Hour {
		return fmt.Errorf("%w: range exceeds %d days", domain.ErrInvalidInput, maxReportDays)
	}
	return nil
}

// Write streams the workbook for [from, to] to w.
func (r *Reporter) Write(ctx context.Context, w io.Writer, from, to time.Time) error {
	f, err := r.build(ctx, models.DateOnly(from), models.DateOnly(to))
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// SaveToDir writes the workbook into the export directory and returns its path.
func (r *Reporter) SaveToDir(ctx context.Context, from, to time.Time) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := r.build(ctx, models.DateOnly(from), models.DateOnly(to))
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx", from.Format(models.DateLayout), to.Format(models.DateLayout))
	filePath := filepath.Join(r.dir, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	r.logger.Info().Str("file_path", filePath).Msg("bookings report created")
	return filePath, nil
}

func (r *Reporter) build(ctx context.Context, from, to time.Time) (*excelize.File, error) {
	if err := ValidateRange(from, to); err != nil {
		return nil, err
	}

	bookings, err := r.bookings.ListActiveBookingsByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error getting bookings: %w", err)
	}
	venues, err := r.venues.ListActiveVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting venues: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", listSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error naming sheet: %w", err)
	}
	if _, err := f.NewSheet(scheduleSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}

	names := make(map[int64]string, len(venues))
	for _, v := range venues {
		names[v.ID] = v.Name
	}

	if err := writeList(f, bookings, names); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSchedule(f, from, to, bookings, venues); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

var listHeaders = []string{"ID", "Date", "Venue", "Start", "End", "User", "Status", "Amount"}

func writeList(f *excelize.File, bookings []models.Booking, venueNames map[int64]string) error {
	if err := f.SetSheetRow(listSheet, "A1", &listHeaders); err != nil {
		return fmt.Errorf("error writing headers: %w", err)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(listSheet, "A1", "H1", headerStyle)

	for i, b := range bookings {
		venue := venueNames[b.VenueID]
		if venue == "" {
			venue = fmt.Sprintf("#%d", b.VenueID)
		}
		row := []interface{}{
			b.ID,
			b.Date.Format(models.DateLayout),
			venue,
			b.StartTime.String(),
			b.EndTime.String(),
			b.UserID,
			b.Status,
			float64(b.TotalAmount) / 100,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(listSheet, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(listSheet, "A", "B", 12)
	_ = f.SetColWidth(listSheet, "C", "C", 25)
	_ = f.SetColWidth(listSheet, "F", "F", 38)
	return nil
}

// writeSchedule lays out venues down the side and days across the top, each cell listing that day's slots.
func writeSchedule(f *excelize.File, from, to time.Time, bookings []models.Booking, venues []models.Venue) error {
	_ = f.SetCellValue(scheduleSheet, "A1", fmt.Sprintf("Period: %s - %s", from.Format(models.DateLayout), to.Format(models.DateLayout)))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(scheduleSheet, "A1", "A1", titleStyle)

	dateStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	columns := make(map[string]int)
	col := 2
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(scheduleSheet, cell, d.Format("02.01"))
		_ = f.SetCellStyle(scheduleSheet, cell, cell, dateStyle)
		columns[d.Format(models.DateLayout)] = col
		col++
	}
	lastCol, _ := excelize.ColumnNumberToName(col - 1)
	if col > 2 {
		_ = f.MergeCell(scheduleSheet, "A1", lastCol+"1")
	}

	venueStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	rows := make(map[int64]int, len(venues))
	for i, v := range venues {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		_ = f.SetCellValue(scheduleSheet, cell, v.Name)
		_ = f.SetCellStyle(scheduleSheet, cell, cell, venueStyle)
		rows[v.ID] = i + 3
	}

	cells := make(map[string][]string)
	for _, b := range bookings {
		row, ok := rows[b.VenueID]
		if !ok {
			continue
		}
		c, ok := columns[b.Date.Format(models.DateLayout)]
		if !ok {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(c, row)
		cells[cell] = append(cells[cell], fmt.Sprintf("%s-%s %s", b.StartTime, b.EndTime, b.Status))
	}

	wrap, _ := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	for cell, lines := range cells {
		if err := f.SetCellValue(scheduleSheet, cell, strings.Join(lines, "\n")); err != nil {
			return fmt.Errorf("error writing schedule cell %s: %w", cell, err)
		}
		_ = f.SetCellStyle(scheduleSheet, cell, cell, wrap)
	}

	_ = f.SetColWidth(scheduleSheet, "A", "A", 25)
	if col > 2 {
		_ = f.SetColWidth(scheduleSheet, "B", lastCol, 20)
	}
	return nil
}
