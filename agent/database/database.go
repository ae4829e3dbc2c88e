// Package database implements a read-only agent over a MySQL database.
//
// The agent answers schema introspection and data retrieval actions. Every
// SQL statement passes through a sanitizer that rejects anything but a
// single SELECT, so a planned workflow can never mutate the database.
package database

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentpipe/agentpipe/core"
)

// Actions supported by the agent.
const (
	ActionExecuteQuery    = "execute_query"
	ActionGetTableSchema  = "get_table_schema"
	ActionGetFullSchema   = "get_full_schema"
	ActionGetTableData    = "get_table_data"
	ActionFindRelatedData = "find_related_data"
)

var capabilities = []string{
	ActionExecuteQuery,
	ActionGetTableSchema,
	ActionGetFullSchema,
	ActionGetTableData,
	ActionFindRelatedData,
}

const defaultRowLimit = 100

// Config holds the database connection settings.
type Config struct {
	// DSN is the MySQL data source name, e.g.
	// "user:pass@tcp(localhost:3306)/mydb?parseTime=true".
	DSN string
}

// Agent serves read-only queries against a MySQL database.
type Agent struct {
	db *gorm.DB
}

var _ core.Agent = (*Agent)(nil)

// New opens a connection pool for the given config.
func New(cfg Config) (*Agent, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn cannot be empty")
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Agent{db: db}, nil
}

// NewFromDB wraps an existing gorm handle. Useful for tests.
func NewFromDB(db *gorm.DB) *Agent {
	return &Agent{db: db}
}

// Capabilities implements core.Agent.
func (a *Agent) Capabilities() []string { return capabilities }

// Validate implements core.Agent.
func (a *Agent) Validate(req core.Request) bool {
	if !core.ActionSupported(capabilities, req.Action) {
		return false
	}

	switch req.Action {
	case ActionExecuteQuery:
		return req.HasParam("query")
	case ActionGetTableSchema, ActionGetTableData:
		return req.HasParam("table")
	case ActionFindRelatedData:
		return req.HasParam("table") && req.HasParam("column") && req.HasParam("value")
	default:
		return true
	}
}

// Process implements core.Agent.
func (a *Agent) Process(ctx context.Context, req core.Request) (core.Response, error) {
	var (
		data any
		err  error
	)

	switch req.Action {
	case ActionExecuteQuery:
		data, err = a.executeQuery(ctx, req)
	case ActionGetTableSchema:
		data, err = a.getTableSchema(ctx, req.StringParam("table", ""))
	case ActionGetFullSchema:
		data, err = a.getFullSchema(ctx)
	case ActionGetTableData:
		data, err = a.getTableData(ctx, req)
	case ActionFindRelatedData:
		data, err = a.findRelatedData(ctx, req)
	default:
		return core.Errorf("unsupported action: %s", req.Action), nil
	}

	if err != nil {
		return core.Errorf("%s failed: %v", req.Action, err), nil
	}

	resp := core.Ok(data)
	resp.Metadata = req.Metadata

	return resp, nil
}

func (a *Agent) executeQuery(ctx context.Context, req core.Request) (any, error) {
	query, err := SanitizeQuery(req.StringParam("query", ""))
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := a.db.WithContext(ctx).Raw(query).Scan(&rows).Error; err != nil {
		return nil, err
	}

	return map[string]any{"rows": rows, "row_count": len(rows)}, nil
}

func (a *Agent) getTableSchema(ctx context.Context, table string) (any, error) {
	if err := validIdentifier(table); err != nil {
		return nil, err
	}

	var columns []map[string]any
	err := a.db.WithContext(ctx).Raw(
		`SELECT column_name, data_type, is_nullable, column_key, column_default
		 FROM information_schema.columns
		 WHERE table_schema = DATABASE() AND table_name = ?
		 ORDER BY ordinal_position`, table,
	).Scan(&columns).Error
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return map[string]any{"table": table, "columns": columns}, nil
}

func (a *Agent) getFullSchema(ctx context.Context) (any, error) {
	var tables []string
	err := a.db.WithContext(ctx).Raw(
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = DATABASE() ORDER BY table_name`,
	).Scan(&tables).Error
	if err != nil {
		return nil, err
	}

	schema := make(map[string]any, len(tables))
	for _, table := range tables {
		tableSchema, err := a.getTableSchema(ctx, table)
		if err != nil {
			return nil, err
		}
		schema[table] = tableSchema
	}

	return map[string]any{"tables": tables, "schema": schema}, nil
}

func (a *Agent) getTableData(ctx context.Context, req core.Request) (any, error) {
	table := req.StringParam("table", "")
	if err := validIdentifier(table); err != nil {
		return nil, err
	}

	limit := req.IntParam("limit", defaultRowLimit)
	if limit <= 0 {
		limit = defaultRowLimit
	}

	var rows []map[string]any
	err := a.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT * FROM `%s` LIMIT ?", table), limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return map[string]any{"table": table, "rows": rows, "row_count": len(rows)}, nil
}

// findRelatedData returns the matching rows from the given table plus rows
// from any table holding a foreign key into it, discovered through
// information_schema.key_column_usage.
func (a *Agent) findRelatedData(ctx context.Context, req core.Request) (any, error) {
	table := req.StringParam("table", "")
	column := req.StringParam("column", "")
	value, _ := req.Param("value")

	if err := validIdentifier(table); err != nil {
		return nil, err
	}
	if err := validIdentifier(column); err != nil {
		return nil, err
	}

	var rows []map[string]any
	err := a.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT * FROM `%s` WHERE `%s` = ? LIMIT ?", table, column), value, defaultRowLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var refs []struct {
		TableName  string `gorm:"column:TABLE_NAME"`
		ColumnName string `gorm:"column:COLUMN_NAME"`
	}
	err = a.db.WithContext(ctx).Raw(
		`SELECT table_name, column_name FROM information_schema.key_column_usage
		 WHERE table_schema = DATABASE()
		   AND referenced_table_name = ? AND referenced_column_name = ?`,
		table, column,
	).Scan(&refs).Error
	if err != nil {
		return nil, err
	}

	related := make(map[string]any, len(refs))
	for _, ref := range refs {
		if err := validIdentifier(ref.TableName); err != nil {
			continue
		}
		if err := validIdentifier(ref.ColumnName); err != nil {
			continue
		}

		var refRows []map[string]any
		err := a.db.WithContext(ctx).
			Raw(fmt.Sprintf("SELECT * FROM `%s` WHERE `%s` = ? LIMIT ?", ref.TableName, ref.ColumnName), value, defaultRowLimit).
			Scan(&refRows).Error
		if err != nil {
			return nil, err
		}
		if len(refRows) > 0 {
			related[ref.TableName] = refRows
		}
	}

	return map[string]any{
		"table":   table,
		"rows":    rows,
		"related": related,
	}, nil
}
