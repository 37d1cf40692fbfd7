package handlers

import (
	"context"
	"errors"
	"io/fs"

	"github.com/sameehj/dataworks/pkg/config"
	"github.com/sameehj/dataworks/pkg/query"
	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/sameehj/dataworks/pkg/task"
)

// SQLQuery evaluates a fixed scalar query and stores its text form.
type SQLQuery struct {
	engine query.Engine
	cfg    config.SQLTask
}

func NewSQLQuery(engine query.Engine, cfg config.SQLTask) *SQLQuery {
	return &SQLQuery{engine: engine, cfg: cfg}
}

func (q *SQLQuery) ID() task.HandlerID { return task.SQLQuery }

func (q *SQLQuery) Description() string {
	return "Run the configured query on " + q.cfg.Database + " into " + q.cfg.Output
}

func (q *SQLQuery) Execute(ctx context.Context, box *sandbox.IO) (task.Result, error) {
	dbPath, err := box.Path(q.cfg.Database)
	if err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindQuery, "Failed to execute SQL query")
	}

	value, err := q.engine.Scalar(ctx, dbPath, q.cfg.Query)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return task.Result{}, task.Query("Database not found", err)
		}
		return task.Result{}, task.Query("Failed to execute SQL query", err)
	}

	if err := box.Write(q.cfg.Output, value); err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindInternal, "Failed to save query result")
	}
	return task.Succeeded("SQL query executed successfully"), nil
}
