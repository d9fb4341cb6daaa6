package services

import (
	"context"

	"inkasso/internal/report"
	"inkasso/internal/sheets"
)

// ReportPublisher delivers an assembled collections overview somewhere
type ReportPublisher interface {
	// Publish writes every sheet of the report to the destination
	Publish(ctx context.Context, r *report.Report) error
}

var (
	_ ReportPublisher = (*report.WorkbookWriter)(nil)
	_ ReportPublisher = (*sheets.Service)(nil)
)
