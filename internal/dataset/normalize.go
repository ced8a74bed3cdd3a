package dataset

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"ipdash/pkg/contracts/domain"
)

// DateLayout is the fixed literal date format the source sheet uses.
const DateLayout = "2006. 01. 02"

var episodeDigits = regexp.MustCompile(`\d+`)

// Normalize parses a raw string table into the typed event table.
// The normalizer never drops a row; filtering is the aggregators' job.
//
// Typing rules:
//   - value: thousands separators and percent signs stripped, then
//     parsed as float; unparseable or absent cells become 0. The
//     aggregation layer treats non-positive values as missing, so the
//     load-time 0 is a display-safety default, not a measurement.
//   - dates: parsed with DateLayout; unparseable values become the zero
//     time, never an error.
//   - categorical text: surrounding whitespace trimmed.
//   - episode number: first run of digits in the episode label; labels
//     without digits (or an absent label column) yield an invalid
//     episode number and the row stays out of per-episode groupings.
func Normalize(table domain.RawTable, cols ColumnMap) ([]domain.Event, error) {
	index, err := columnIndex(table.Header, cols)
	if err != nil {
		return nil, err
	}

	cell := func(row []string, canonical string) string {
		i, ok := index[canonical]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	events := make([]domain.Event, 0, len(table.Rows))
	for _, row := range table.Rows {
		e := domain.Event{
			IP:           cell(row, ColIP),
			Slot:         cell(row, ColSlot),
			Metric:       domain.Metric(cell(row, ColMetric)),
			Media:        domain.Media(cell(row, ColMedia)),
			Demographic:  cell(row, ColDemographic),
			EpisodeLabel: cell(row, ColEpisode),
			WeekLabel:    cell(row, ColWeek),
			WeekStart:    parseDate(cell(row, ColWeekStart)),
			AirStart:     parseDate(cell(row, ColAirStart)),
			Value:        parseValue(cell(row, ColValue)),
		}
		e.Episode = parseEpisode(e.EpisodeLabel)
		events = append(events, e)
	}
	return events, nil
}

// parseValue cleans and parses a numeric cell. "1,234%" parses to 1234.
func parseValue(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "%", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseEpisode extracts the first integer substring of the label.
func parseEpisode(label string) domain.EpisodeNumber {
	digits := episodeDigits.FindString(label)
	if digits == "" {
		return domain.EpisodeNumber{}
	}
	n, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return domain.EpisodeNumber{}
	}
	return domain.EpisodeNumber{Number: n, Valid: true}
}
