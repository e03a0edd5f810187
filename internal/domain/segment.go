package domain

// Segment partitions a rain log into storm events.
//
// Rows whose first field is empty end the current storm; runs of such rows
// count as a single break. Header rows are skipped wherever they appear.
// The last storm is emitted even when the log has no trailing gap. Any
// malformed row or inconsistent storm aborts segmentation and no events
// are returned.
func Segment(rows []RainRow) ([]StormEvent, error) {
	var (
		events []StormEvent
		run    []RainReading
	)

	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		event, err := NewStormEvent(run)
		if err != nil {
			return err
		}
		events = append(events, event)
		run = nil
		return nil
	}

	for _, row := range rows {
		switch {
		case row.IsHeader():
			continue
		case row.IsGap():
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			reading, err := ParseRainReading(row)
			if err != nil {
				return nil, err
			}
			run = append(run, reading)
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return events, nil
}
