// Package export serializes calendar snapshots to CSV and iCalendar files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kalendo/kalendo/pkg/event"
)

var csvHeader = []string{"Subject", "Start", "End", "Description", "Location", "Status", "AllDay", "SeriesId"}

// CSVRenderer writes an event snapshot as comma-separated rows with a fixed
// header. Timestamps are formatted as RFC 3339 in their stored zone.
type CSVRenderer struct{}

func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

func (r *CSVRenderer) Render(w io.Writer, events []event.Event) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, e := range events {
		row := []string{
			e.Subject,
			e.Start.Format(time.RFC3339),
			e.End.Format(time.RFC3339),
			e.Description,
			e.Location,
			e.Status.String(),
			strconv.FormatBool(e.AllDay),
			e.SeriesID,
		}
		if err := writer.Write(row); err != nil {
			log.Errorf("error writing to csv: %v", err)
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("error writing to csv: %v", err)
		return err
	}
	return nil
}
