package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"taskhub/internal/config"
	"taskhub/internal/service"
	"taskhub/internal/storage/records"
	"taskhub/internal/storage/sqlite"
)

// stores holds both databases after the schema and the task table exist.
type stores struct {
	projects *sqlite.Store
	records  *records.Store
	tasks    *records.Table
}

// openStores opens both databases and creates the task table when missing.
// Running it against an initialized deployment changes nothing.
func openStores(ctx context.Context, c *config.Config, logger *zap.Logger) (*stores, error) {
	projects, err := sqlite.Open(c.Database.ProjectsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}

	recs, err := records.Open(c.Database.TasksPath)
	if err != nil {
		_ = projects.Close()
		return nil, fmt.Errorf("open task store: %w", err)
	}

	s := &stores{projects: projects, records: recs}
	if err := recs.CreateTable(ctx, service.TaskTable); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("create %s table: %w", service.TaskTable.Name, err)
	}
	s.tasks, err = recs.Table(ctx, service.TaskTable.Name)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	logger.Info("stores ready",
		zap.String("projects_db", c.Database.ProjectsPath),
		zap.String("tasks_db", c.Database.TasksPath),
	)
	return s, nil
}

// Close releases both databases.
func (s *stores) Close() error {
	return errors.Join(s.records.Close(), s.projects.Close())
}
