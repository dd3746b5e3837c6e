package constants

// Scheduler constants for the recurring purge job.

// CronJobsFile is the filename used to persist job registrations (JSON Lines).
const CronJobsFile = "jobs.jsonl"

// CronJobTypeRecurring marks a registration that fires on a fixed interval.
const CronJobTypeRecurring = "recurring"

// CronOwner is recorded as the owner of jobs registered by the service itself.
const CronOwner = "system"
