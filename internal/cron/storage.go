// Package cron provides persistent storage for cron jobs using JSONL format.
// Storage keeps the registration record so that interval drift can be
// detected across restarts and inspected from the CLI.
package cron

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/aatumaykin/subpurge/internal/constants"
	"github.com/aatumaykin/subpurge/internal/logger"
)

const (
	// CronSubdirectory is the subdirectory name for cron jobs within the data dir
	CronSubdirectory = "cron"

	// JobsFilename is the filename for storing cron jobs in JSONL format
	JobsFilename = constants.CronJobsFile
)

// StorageJob represents a cron job persisted in storage
type StorageJob struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Schedule  string    `json:"schedule"`
	Owner     string    `json:"owner,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage provides persistent storage for cron jobs.
// It uses JSONL (JSON Lines) format to store jobs one per line.
type Storage struct {
	filePath string
	logger   *logger.Logger
}

// NewStorage creates a new Storage instance for cron jobs.
// The file lives at <dataDir>/cron/jobs.jsonl.
func NewStorage(dataDir string, logger *logger.Logger) *Storage {
	return &Storage{
		filePath: filepath.Join(dataDir, CronSubdirectory, JobsFilename),
		logger:   logger,
	}
}

// Path returns the registry file path.
func (s *Storage) Path() string {
	return s.filePath
}

// Load reads cron jobs from the JSONL storage file.
// Returns empty slice if file doesn't exist. Malformed lines are skipped.
func (s *Storage) Load() ([]StorageJob, error) {
	file, err := os.Open(s.filePath)
	if os.IsNotExist(err) {
		return []StorageJob{}, nil
	}
	if err != nil {
		s.logger.Error("failed to open storage file", err,
			logger.Field{Key: "file", Value: s.filePath})
		return nil, err
	}
	defer file.Close()

	var jobs []StorageJob
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var job StorageJob
		if err := json.Unmarshal(line, &job); err != nil {
			s.logger.Error("failed to unmarshal job line", err,
				logger.Field{Key: "file", Value: s.filePath},
				logger.Field{Key: "line", Value: lineNum})
			continue
		}

		jobs = append(jobs, job)
	}

	if err := scanner.Err(); err != nil {
		s.logger.Error("error scanning storage file", err,
			logger.Field{Key: "file", Value: s.filePath})
		return nil, err
	}

	return jobs, nil
}

// Get returns the stored job with the given ID.
func (s *Storage) Get(jobID string) (StorageJob, bool, error) {
	jobs, err := s.Load()
	if err != nil {
		return StorageJob{}, false, err
	}
	i := slices.IndexFunc(jobs, func(j StorageJob) bool { return j.ID == jobID })
	if i < 0 {
		return StorageJob{}, false, nil
	}
	return jobs[i], true, nil
}

// Remove removes a cron job from the storage by its ID.
func (s *Storage) Remove(jobID string) error {
	jobs, err := s.Load()
	if err != nil {
		return err
	}

	filtered := slices.DeleteFunc(jobs, func(j StorageJob) bool { return j.ID == jobID })
	if len(filtered) == len(jobs) {
		s.logger.Warn("job not found for removal",
			logger.Field{Key: "job_id", Value: jobID})
		return nil
	}

	if err := s.Save(filtered); err != nil {
		return err
	}

	s.logger.Debug("job removed from storage",
		logger.Field{Key: "job_id", Value: jobID},
		logger.Field{Key: "file", Value: s.filePath})

	return nil
}

// Save writes all cron jobs to the storage file using atomic write.
// A temporary file is created first, then renamed to the actual file.
func (s *Storage) Save(jobs []StorageJob) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		s.logger.Error("failed to create storage directory", err,
			logger.Field{Key: "dir", Value: filepath.Dir(s.filePath)})
		return err
	}

	tmpPath := s.filePath + ".tmp"

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		s.logger.Error("failed to create temporary storage file", err,
			logger.Field{Key: "file", Value: tmpPath})
		return err
	}
	defer file.Close()

	for _, job := range jobs {
		data, err := json.Marshal(job)
		if err != nil {
			s.logger.Error("failed to marshal job", err,
				logger.Field{Key: "job_id", Value: job.ID})
			return err
		}

		if _, err := file.Write(append(data, '\n')); err != nil {
			s.logger.Error("failed to write job to temporary file", err,
				logger.Field{Key: "file", Value: tmpPath},
				logger.Field{Key: "job_id", Value: job.ID})
			return err
		}
	}

	if err := file.Sync(); err != nil {
		s.logger.Error("failed to sync temporary file", err,
			logger.Field{Key: "file", Value: tmpPath})
		return err
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		s.logger.Error("failed to rename temporary file", err,
			logger.Field{Key: "from", Value: tmpPath},
			logger.Field{Key: "to", Value: s.filePath})
		return err
	}

	s.logger.Debug("jobs saved to storage",
		logger.Field{Key: "count", Value: len(jobs)},
		logger.Field{Key: "file", Value: s.filePath})

	return nil
}

// UpsertJob adds a new cron job to storage or updates an existing one.
func (s *Storage) UpsertJob(job StorageJob) error {
	jobs, err := s.Load()
	if err != nil {
		return err
	}

	found := false
	for i, existing := range jobs {
		if existing.ID == job.ID {
			jobs[i] = job
			found = true
			break
		}
	}
	if !found {
		jobs = append(jobs, job)
	}

	if err := s.Save(jobs); err != nil {
		return err
	}

	s.logger.Debug("job upserted to storage",
		logger.Field{Key: "job_id", Value: job.ID},
		logger.Field{Key: "file", Value: s.filePath},
		logger.Field{Key: "updated", Value: found})

	return nil
}
