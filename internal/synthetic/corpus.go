package synthetic

import "calldata-platform/internal/calls"

// Fixed vocabularies. Order matters: reordering changes every tenant's output.

var firstNames = []string{
	"Ava", "Liam", "Sofia", "Noah", "Mia", "Ethan", "Isabella", "Lucas",
	"Amelia", "Mason", "Harper", "Elijah", "Evelyn", "Logan", "Abigail", "James",
}

var lastNames = []string{
	"Johnson", "Garcia", "Miller", "Davis", "Martinez", "Lopez", "Wilson", "Anderson",
	"Thomas", "Moore", "Jackson", "Martin", "Lee", "Thompson", "White", "Harris",
}

var streets = []string{
	"Maple Ave", "Oak St", "Cedar Ln", "Pine Rd", "Elm St", "Birch Ct", "Willow Way", "Lakeview Dr",
}

type timeWindow struct {
	label     string
	startHour int
}

var timeWindows = []timeWindow{
	{"8am-10am", 8},
	{"10am-12pm", 10},
	{"12pm-2pm", 12},
	{"2pm-4pm", 14},
	{"4pm-6pm", 16},
}

var recordStatuses = []calls.RecordStatus{
	calls.RecordStatusBooked,
	calls.RecordStatusBooked,
	calls.RecordStatusScheduled,
	calls.RecordStatusConfirmed,
	calls.RecordStatusConfirmed,
	calls.RecordStatusCompleted,
	calls.RecordStatusCanceled,
}

var eventStatuses = []calls.EventStatus{
	calls.EventStatusCompleted,
	calls.EventStatusCompleted,
	calls.EventStatusCompleted,
	calls.EventStatusCompleted,
	calls.EventStatusTransferred,
	calls.EventStatusNoAnswer,
	calls.EventStatusFailed,
}

var intents = []string{"new_booking", "reschedule", "cancellation", "pricing_question", "emergency"}

var notes = []string{
	"Gate code 4411",
	"Prefers text confirmation",
	"Dog on premises",
	"Second visit",
	"",
}

var summaries = []string{
	"Caller booked a service visit for next week.",
	"Caller asked about pricing and will call back.",
	"Caller rescheduled an existing appointment.",
	"Caller requested a human; transferred to the office line.",
	"Caller confirmed tomorrow's appointment.",
}
