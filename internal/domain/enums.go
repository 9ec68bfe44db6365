package domain

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
	FrequencyOneTime Frequency = "one-time"
)

// ValidFrequencies is the canonical set of accepted task frequency strings.
var ValidFrequencies = map[Frequency]bool{
	FrequencyDaily: true, FrequencyWeekly: true, FrequencyMonthly: true,
	FrequencyYearly: true, FrequencyOneTime: true,
}

// Label returns the display form of the frequency.
func (f Frequency) Label() string {
	switch f {
	case FrequencyDaily:
		return "Daily"
	case FrequencyWeekly:
		return "Weekly"
	case FrequencyMonthly:
		return "Monthly"
	case FrequencyYearly:
		return "Yearly"
	case FrequencyOneTime:
		return "One-time"
	default:
		return string(f)
	}
}

type EntryType string

const (
	EntryTask   EntryType = "task"
	EntryTravel EntryType = "travel"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldCheckbox FieldType = "checkbox"
	FieldDate     FieldType = "date"
)

// ValidFieldTypes is the canonical set of accepted tracked field types.
var ValidFieldTypes = map[FieldType]bool{
	FieldText: true, FieldNumber: true, FieldCheckbox: true, FieldDate: true,
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// DragMode selects how MoveEntry places a dragged entry.
type DragMode string

const (
	DragInsert DragMode = "insert"
	DragSwap   DragMode = "swap"
)
