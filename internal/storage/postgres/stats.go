package postgres

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/eventhub-api/internal/logger"
)

// StatsCollector reads planner and activity statistics for the service schema
type StatsCollector struct {
	db  *gorm.DB
	log *log.Logger
}

// NewStatsCollector creates a new statistics collector
func NewStatsCollector(db *gorm.DB) *StatsCollector {
	return &StatsCollector{
		db:  db,
		log: logger.Repository("stats"),
	}
}

// SchemaReport is a point-in-time summary of the database
type SchemaReport struct {
	Tables      []TableStats    `json:"tables"`
	Indexes     []IndexUsage    `json:"indexes"`
	Connections ConnectionStats `json:"connections"`
	Hints       []string        `json:"hints"`
}

// TableStats represents table statistics
type TableStats struct {
	TableName string `json:"table_name"`
	LiveRows  int64  `json:"live_rows"`
	DeadRows  int64  `json:"dead_rows"`
	TableSize string `json:"table_size"`
	IndexSize string `json:"index_size"`
	SeqScans  int64  `json:"seq_scans"`
}

// IndexUsage represents index usage statistics
type IndexUsage struct {
	TableName string `json:"table_name"`
	IndexName string `json:"index_name"`
	Scans     int64  `json:"scans"`
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	Total   int     `json:"total"`
	Active  int     `json:"active"`
	Idle    int     `json:"idle"`
	Max     int     `json:"max"`
	Percent float64 `json:"percent"`
}

// Report gathers table, index and connection statistics. Sections that fail
// are logged and left empty.
func (s *StatsCollector) Report(ctx context.Context) (*SchemaReport, error) {
	report := &SchemaReport{}

	tables, err := s.tableStats(ctx)
	if err != nil {
		s.log.Warn("Failed to get table stats", "error", err)
	}
	report.Tables = tables

	indexes, err := s.indexUsage(ctx)
	if err != nil {
		s.log.Warn("Failed to get index usage", "error", err)
	}
	report.Indexes = indexes

	conns, err := s.connectionStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection stats: %w", err)
	}
	report.Connections = *conns

	report.Hints = hints(report)

	s.log.Debug("Schema report collected", "tables", len(report.Tables), "indexes", len(report.Indexes))
	return report, nil
}

func (s *StatsCollector) tableStats(ctx context.Context) ([]TableStats, error) {
	stats := make([]TableStats, 0)

	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT
			relname,
			n_live_tup,
			n_dead_tup,
			pg_size_pretty(pg_total_relation_size(relid)),
			pg_size_pretty(pg_indexes_size(relid)),
			seq_scan
		FROM pg_stat_user_tables
		ORDER BY pg_total_relation_size(relid) DESC
	`).Rows()
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var t TableStats
		if err := rows.Scan(&t.TableName, &t.LiveRows, &t.DeadRows, &t.TableSize, &t.IndexSize, &t.SeqScans); err != nil {
			return stats, err
		}
		stats = append(stats, t)
	}
	return stats, rows.Err()
}

func (s *StatsCollector) indexUsage(ctx context.Context) ([]IndexUsage, error) {
	usage := make([]IndexUsage, 0)

	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT relname, indexrelname, idx_scan
		FROM pg_stat_user_indexes
		ORDER BY idx_scan ASC, indexrelname
	`).Rows()
	if err != nil {
		return usage, err
	}
	defer rows.Close()

	for rows.Next() {
		var u IndexUsage
		if err := rows.Scan(&u.TableName, &u.IndexName, &u.Scans); err != nil {
			return usage, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

func (s *StatsCollector) connectionStats(ctx context.Context) (*ConnectionStats, error) {
	var stats ConnectionStats

	row := s.db.WithContext(ctx).Raw(`
		SELECT
			count(*),
			count(*) FILTER (WHERE state = 'active'),
			count(*) FILTER (WHERE state = 'idle'),
			(SELECT setting::int FROM pg_settings WHERE name = 'max_connections')
		FROM pg_stat_activity
		WHERE datname = current_database()
	`).Row()

	if err := row.Scan(&stats.Total, &stats.Active, &stats.Idle, &stats.Max); err != nil {
		return nil, err
	}
	if stats.Max > 0 {
		stats.Percent = float64(stats.Total) / float64(stats.Max) * 100
	}
	return &stats, nil
}

func hints(r *SchemaReport) []string {
	out := make([]string, 0)
	for _, idx := range r.Indexes {
		if idx.Scans == 0 {
			out = append(out, fmt.Sprintf("index %s on %s has never been used", idx.IndexName, idx.TableName))
		}
	}
	for _, t := range r.Tables {
		if t.LiveRows > 0 && t.DeadRows > t.LiveRows/5 {
			out = append(out, fmt.Sprintf("table %s has %d dead rows; consider VACUUM", t.TableName, t.DeadRows))
		}
	}
	if r.Connections.Percent > 80 {
		out = append(out, fmt.Sprintf("connection usage at %.0f%% of max_connections", r.Connections.Percent))
	}
	return out
}
