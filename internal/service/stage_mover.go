package service

import (
	"context"

	"go.uber.org/zap"

	"titulacion/internal/model"
	"titulacion/internal/repository"
	"titulacion/internal/workflow"
)

// stageMover persists the moves computed by the workflow machine.
// Callers pass the transaction-scoped repository.
type stageMover struct {
	machine *workflow.Machine
	logger  *zap.Logger
}

func newStageMover(machine *workflow.Machine, logger *zap.Logger) *stageMover {
	return &stageMover{machine: machine, logger: logger}
}

func (m *stageMover) advance(ctx context.Context, tx *repository.Repository, g *model.Graduate) (workflow.Step, error) {
	step, err := m.machine.Advance(g.StageID)
	if err != nil {
		return step, err
	}
	return step, m.apply(ctx, tx, g, step)
}

// retreat moves one stage back. From the first stage this deletes the
// graduate's account and clears both references (MoveReset).
func (m *stageMover) retreat(ctx context.Context, tx *repository.Repository, g *model.Graduate) (workflow.Step, error) {
	step, err := m.machine.Retreat(g.StageID)
	if err != nil {
		return step, err
	}
	return step, m.apply(ctx, tx, g, step)
}

func (m *stageMover) apply(ctx context.Context, tx *repository.Repository, g *model.Graduate, step workflow.Step) error {
	switch step.Move {
	case workflow.MoveTo:
		id := step.Stage.ID
		if err := tx.Graduate.SetStage(ctx, g.IdentityKey, &id); err != nil {
			return err
		}
		from := ""
		if g.Stage != nil {
			from = g.Stage.Name
		}
		g.StageID = &id
		g.Stage = step.Stage
		m.logger.Info("graduate stage changed",
			zap.String("control_number", g.ControlNumber),
			zap.String("from", from),
			zap.String("to", step.Stage.Name),
		)

	case workflow.MoveReset:
		accountID := g.AccountID
		if err := tx.Graduate.ClearAccountAndStage(ctx, g.IdentityKey); err != nil {
			return err
		}
		if accountID != nil && *accountID != "" {
			if err := tx.Account.Delete(ctx, *accountID); err != nil {
				return err
			}
		}
		g.AccountID = nil
		g.Account = nil
		g.StageID = nil
		g.Stage = nil
		m.logger.Warn("graduate reset: account deleted",
			zap.String("control_number", g.ControlNumber),
		)
	}
	return nil
}
