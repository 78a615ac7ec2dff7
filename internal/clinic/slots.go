package clinic

import (
	"fmt"
	"time"
)

// Working day grid: 09:00 inclusive to 17:00 exclusive, 30-minute stride,
// 16 candidate slots per day.
const (
	workdayStartHour = 9
	workdayEndHour   = 17
	slotStride       = 30 * time.Minute
)

const dayLayout = "2006-01-02"

// Slot is one bookable window within a doctor's working day.
type Slot struct {
	Start   time.Time
	End     time.Time
	Display string
}

// ParseDay parses a calendar date in 2006-01-02 form.
func ParseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(dayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid date", ErrInvalidDate, s)
	}
	return day, nil
}

// DaySlots generates the candidate slots for one calendar day, in
// chronological order. Pure function of its input; call it again to restart.
func DaySlots(day time.Time) []Slot {
	start := time.Date(day.Year(), day.Month(), day.Day(), workdayStartHour, 0, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), workdayEndHour, 0, 0, 0, day.Location())

	slots := make([]Slot, 0, end.Sub(start)/slotStride)
	for t := start; t.Before(end); t = t.Add(slotStride) {
		slotEnd := t.Add(slotStride)
		slots = append(slots, Slot{
			Start:   t,
			End:     slotEnd,
			Display: fmt.Sprintf("%s - %s", t.Format("15:04"), slotEnd.Format("15:04")),
		})
	}
	return slots
}

// parseAppointmentTime accepts RFC 3339 timestamps and the shorter
// datetime-local form posted by booking forms.
func parseAppointmentTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a valid timestamp", ErrInvalidDate, s)
}
