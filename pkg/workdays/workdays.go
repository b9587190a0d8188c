// Package workdays parses the employee work-schedule descriptor.
//
// A descriptor is either a special status ("الندب" secondment, "تفرغ" full
// release) or a comma separated list of day:period pairs, e.g. "0:M,1:E,5:F".
// Days are numbered from Saturday (0) to Friday (6); periods are M (morning),
// E (evening) and F (full day).
package workdays

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled   Status = ""
	StatusSecondment  Status = "الندب"
	StatusFullRelease Status = "تفرغ"
)

type Period string

const (
	PeriodMorning Period = "M"
	PeriodEvening Period = "E"
	PeriodFull    Period = "F"
)

var dayNames = [7]string{"السبت", "الأحد", "الإثنين", "الثلاثاء", "الأربعاء", "الخميس", "الجمعة"}

var periodNames = map[Period]string{
	PeriodMorning: "صباحية",
	PeriodEvening: "مسائية",
	PeriodFull:    "كامل اليوم",
}

// WorkDay is one scheduled day.
type WorkDay struct {
	Day    int // 0 = Saturday
	Period Period
}

type Schedule struct {
	Status Status
	Days   []WorkDay
}

// Parse validates a descriptor. An empty string yields an empty schedule.
func Parse(descriptor string) (Schedule, error) {
	descriptor = strings.TrimSpace(descriptor)
	switch Status(descriptor) {
	case StatusSecondment, StatusFullRelease:
		return Schedule{Status: Status(descriptor)}, nil
	}

	schedule := Schedule{}
	if descriptor == "" {
		return schedule, nil
	}

	seen := map[int]bool{}
	for _, part := range strings.Split(descriptor, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		dayStr, periodStr, ok := strings.Cut(part, ":")
		if !ok {
			return Schedule{}, fmt.Errorf("invalid work day %q: expected day:period", part)
		}

		day, err := strconv.Atoi(strings.TrimSpace(dayStr))
		if err != nil || day < 0 || day > 6 {
			return Schedule{}, fmt.Errorf("invalid day %q in %q", dayStr, part)
		}
		if seen[day] {
			return Schedule{}, fmt.Errorf("day %d listed twice", day)
		}
		seen[day] = true

		period := Period(strings.ToUpper(strings.TrimSpace(periodStr)))
		if _, ok := periodNames[period]; !ok {
			return Schedule{}, fmt.Errorf("invalid period %q in %q", periodStr, part)
		}

		schedule.Days = append(schedule.Days, WorkDay{Day: day, Period: period})
	}

	sort.Slice(schedule.Days, func(i, j int) bool { return schedule.Days[i].Day < schedule.Days[j].Day })
	return schedule, nil
}

// String renders the canonical descriptor.
func (s Schedule) String() string {
	if s.Status != StatusScheduled {
		return string(s.Status)
	}
	parts := make([]string, 0, len(s.Days))
	for _, d := range s.Days {
		parts = append(parts, fmt.Sprintf("%d:%s", d.Day, d.Period))
	}
	return strings.Join(parts, ",")
}

// Describe renders the schedule for chat users.
func (s Schedule) Describe() string {
	if s.Status != StatusScheduled {
		return "حالة الموظف: " + string(s.Status)
	}
	if len(s.Days) == 0 {
		return "لا توجد بيانات أيام عمل لهذا الموظف."
	}

	var b strings.Builder
	b.WriteString("أيام العمل:\n")
	for _, d := range s.Days {
		fmt.Fprintf(&b, "- %s: %s\n", dayNames[d.Day], periodNames[d.Period])
	}
	return b.String()
}

// WorksOn reports whether the schedule includes the given weekday.
// Special statuses never work on site.
func (s Schedule) WorksOn(weekday time.Weekday) bool {
	day := (int(weekday) + 1) % 7 // time.Saturday (6) -> 0
	for _, d := range s.Days {
		if d.Day == day {
			return true
		}
	}
	return false
}
