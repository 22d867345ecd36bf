package event

// EventSchemaVersion is the current event envelope version
const EventSchemaVersion = "1.0"
