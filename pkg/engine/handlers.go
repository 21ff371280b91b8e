package engine

import (
	"context"
	"fmt"

	"github.com/dukex/autoflow/pkg/models"
)

func (e *Engine) createRow(ctx context.Context, _ Run, inputs models.StepInputs) (map[string]any, error) {
	in, err := inputsAs[models.CreateRowStepInputs](inputs)
	if err != nil {
		return nil, err
	}

	row, err := e.rows.Create(ctx, in.Row)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":  true,
		"row":      row,
		"id":       row.ID(),
		"revision": row["_rev"],
	}, nil
}

func (e *Engine) updateRow(ctx context.Context, _ Run, inputs models.StepInputs) (map[string]any, error) {
	in, err := inputsAs[models.UpdateRowStepInputs](inputs)
	if err != nil {
		return nil, err
	}

	row, err := e.rows.Update(ctx, in.RowID, in.Row)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":  true,
		"row":      row,
		"id":       row.ID(),
		"revision": row["_rev"],
	}, nil
}

func (e *Engine) deleteRow(ctx context.Context, _ Run, inputs models.StepInputs) (map[string]any, error) {
	in, err := inputsAs[models.DeleteRowStepInputs](inputs)
	if err != nil {
		return nil, err
	}

	row, err := e.rows.Delete(ctx, in.TableID, in.ID)
	if err != nil {
		return nil, err
	}

	return map[string]any{"success": true, "row": row}, nil
}

func (e *Engine) sendEmail(ctx context.Context, _ Run, inputs models.StepInputs) (map[string]any, error) {
	in, err := inputsAs[models.SmtpEmailStepInputs](inputs)
	if err != nil {
		return nil, err
	}

	response, err := e.mailer.Send(ctx, in)
	if err != nil {
		return nil, err
	}

	return map[string]any{"success": true, "response": response}, nil
}

func (e *Engine) executeQuery(ctx context.Context, _ Run, inputs models.StepInputs) (map[string]any, error) {
	in, err := inputsAs[models.ExecuteQueryStepInputs](inputs)
	if err != nil {
		return nil, err
	}

	if e.queries == nil {
		return nil, ErrNoQueryRunner
	}

	response, err := e.queries.RunQuery(ctx, in.Query)
	if err != nil {
		return nil, err
	}

	return map[string]any{"success": true, "response": response}, nil
}

func (e *Engine) queryRows(ctx context.Context, _ Run, inputs models.StepInputs) (map[string]any, error) {
	in, err := inputsAs[models.QueryRowsStepInputs](inputs)
	if err != nil {
		return nil, err
	}

	rows, err := e.rows.Query(ctx, RowQuery{
		TableID:    in.TableID,
		Filters:    in.Filters,
		SortColumn: in.SortColumn,
		SortOrder:  in.SortOrder,
		Limit:      in.Limit,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{"success": true, "rows": rows}, nil
}

func (e *Engine) serverLog(ctx context.Context, run Run, inputs models.StepInputs) (map[string]any, error) {
	in, err := inputsAs[models.ServerLogStepInputs](inputs)
	if err != nil {
		return nil, err
	}

	message := run.AppID + " - " + in.Text
	e.logger.InfoContext(ctx, message, "automation_id", run.AutomationID)

	return map[string]any{"success": true, "message": message}, nil
}

func inputsAs[T models.StepInputs](inputs models.StepInputs) (T, error) {
	in, ok := inputs.(T)
	if !ok {
		var zero T

		return zero, fmt.Errorf("%w: unexpected inputs %T", ErrInvalidDefinition, inputs)
	}

	return in, nil
}
