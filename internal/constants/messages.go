package constants

// Config messages
const (
	// MsgConfigLoadError is the error message when configuration loading fails.
	MsgConfigLoadError = "❌ Failed to load configuration: %v\n"

	// MsgConfigValidationError is the message when configuration validation fails.
	MsgConfigValidationError = "❌ Configuration validation failed:\n"

	// MsgConfigValid is the message when configuration is successfully loaded and validated.
	MsgConfigValid = "✅ Configuration loaded"

	// MsgConfigValidatePrefix is the prefix for configuration validation errors.
	MsgConfigValidatePrefix = "  - %v\n"
)

// Purge messages
const (
	MsgPurgeNothing      = "No eligible accounts. Nothing was deleted."
	MsgPurgeDeleted      = "✅ Deleted account #%d (%s)\n"
	MsgPurgeDeleteFailed = "❌ Deletion of account #%d failed\n"
	MsgPurgeSelectFailed = "❌ Eligibility query failed: %v\n"
	MsgPurgeSkipped      = "Another purge cycle is running. Skipped."

	MsgPreviewHeader = "Upcoming purges (threshold: %d days):\n"
	MsgPreviewRow    = "  #%-6d %-20s %-30s %s  %s\n"
	MsgPreviewEmpty  = "No subscribers are scheduled for purge."
	MsgPreviewUrgent = "⚠ %d day(s)"
	MsgPreviewDays   = "%d day(s)"
)

// Settings messages
const (
	MsgSettingsUpdated     = "✅ Setting %s updated\n"
	MsgSettingsUpdateError = "❌ Failed to persist settings: %v\n"
	MsgSettingsUnknownKey  = "unknown setting %q (expected one of: %s)"
)

// Schedule messages
const (
	MsgScheduleMissing = "Job %q is not registered. It will be registered on the next 'subpurge serve'.\n"
	MsgScheduleRow     = "Job:      %s\nSchedule: %s\nUpdated:  %s\n"
	MsgScheduleDrift   = "⚠ Configured schedule is %s. The registration is repaired on the next 'subpurge serve'.\n"
)
