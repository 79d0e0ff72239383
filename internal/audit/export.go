package audit

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV serialises timeline rows with a header line.
func WriteCSV(w io.Writer, rows []TimelineRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"At", "User ID", "Session ID", "Event", "IP", "User Agent"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{
			row.At.UTC().Format(time.RFC3339),
			strconv.FormatInt(row.UserID, 10),
			row.SessionID,
			row.Event,
			row.IP,
			row.UserAgent,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
