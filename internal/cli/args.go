package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/planner"
)

// Weeks, days and entry positions are 1-based on the command line.

func parseID(kind, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return n, nil
}

func parseWeek(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > domain.Weeks {
		return 0, fmt.Errorf("invalid week %q (1-%d)", s, domain.Weeks)
	}
	return n - 1, nil
}

// parseDay accepts 1-7 or a day name prefix such as "mon" or "Thu".
func parseDay(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > domain.DaysPerWeek {
			return 0, fmt.Errorf("invalid day %q (1-%d or mon-sun)", s, domain.DaysPerWeek)
		}
		return n - 1, nil
	}
	if len(s) >= 2 {
		lower := strings.ToLower(s)
		for i, name := range domain.DayNames {
			if strings.HasPrefix(strings.ToLower(name), lower) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid day %q (1-%d or mon-sun)", s, domain.DaysPerWeek)
}

func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	return n - 1, nil
}

func parseCell(week, day string) (int, int, error) {
	w, err := parseWeek(week)
	if err != nil {
		return 0, 0, err
	}
	d, err := parseDay(day)
	if err != nil {
		return 0, 0, err
	}
	return w, d, nil
}

// parseSlot reads WEEK DAY POSITION.
func parseSlot(args []string) (planner.Slot, error) {
	w, d, err := parseCell(args[0], args[1])
	if err != nil {
		return planner.Slot{}, err
	}
	i, err := parsePosition(args[2])
	if err != nil {
		return planner.Slot{}, err
	}
	return planner.Slot{Week: w, Day: d, Index: i}, nil
}

// dragModeValue is a pflag.Value restricted to insert and swap.
type dragModeValue domain.DragMode

func (v *dragModeValue) String() string { return string(*v) }

func (v *dragModeValue) Set(s string) error {
	switch m := domain.DragMode(strings.ToLower(s)); m {
	case domain.DragInsert, domain.DragSwap:
		*v = dragModeValue(m)
		return nil
	}
	return fmt.Errorf("must be %q or %q", domain.DragInsert, domain.DragSwap)
}

func (v *dragModeValue) Type() string { return "mode" }

// fieldTypeValue is a pflag.Value restricted to tracked field types.
type fieldTypeValue domain.FieldType

func (v *fieldTypeValue) String() string { return string(*v) }

func (v *fieldTypeValue) Set(s string) error {
	t := domain.FieldType(strings.ToLower(s))
	if !domain.ValidFieldTypes[t] {
		return fmt.Errorf("must be one of text, number, checkbox, date")
	}
	*v = fieldTypeValue(t)
	return nil
}

func (v *fieldTypeValue) Type() string { return "type" }

// parseFieldSpecs reads repeated --field values of the form
// LABEL[:TYPE[:EXPIRY_DAYS]]. A date field with an expiry is highlighted.
func parseFieldSpecs(values []string) ([]planner.FieldSpec, error) {
	specs := make([]planner.FieldSpec, 0, len(values))
	for _, raw := range values {
		parts := strings.Split(raw, ":")
		spec := planner.FieldSpec{Label: strings.TrimSpace(parts[0])}
		if len(parts) > 1 && parts[1] != "" {
			var t fieldTypeValue
			if err := t.Set(parts[1]); err != nil {
				return nil, fmt.Errorf("field %q: %w", raw, err)
			}
			spec.Type = domain.FieldType(t)
		}
		if len(parts) > 2 {
			days, err := strconv.Atoi(parts[2])
			if err != nil || days <= 0 || spec.Type != domain.FieldDate {
				return nil, fmt.Errorf("field %q: expiry days need a date field and a positive number", raw)
			}
			spec.ExpiryDays = days
			spec.HighlightEnabled = true
		}
		if len(parts) > 3 {
			return nil, fmt.Errorf("field %q: expected LABEL[:TYPE[:EXPIRY_DAYS]]", raw)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
