// Package workflow holds the stage catalog and the document requirement matrix.
//
// Machine only computes where a graduate goes next; callers persist the move.
package workflow

import (
	"errors"
	"fmt"
	"sort"

	"titulacion/internal/model"
	apperrors "titulacion/pkg/errors"
)

var (
	ErrEmptyCatalog   = errors.New("stage catalog is empty")
	ErrDuplicateOrder = errors.New("duplicate stage order")
	ErrDuplicateName  = errors.New("duplicate stage name")
	ErrInvalidOrder   = errors.New("stage order must be positive")
)

// Move outcome of Advance or Retreat
type Move int

const (
	// MoveNone nothing changes
	MoveNone Move = iota
	// MoveTo the graduate goes to Step.Stage
	MoveTo
	// MoveReset full rejection: the account is deleted and both the account
	// and stage references are cleared. The graduate record itself stays.
	MoveReset
)

func (m Move) String() string {
	switch m {
	case MoveTo:
		return "move"
	case MoveReset:
		return "reset"
	default:
		return "none"
	}
}

// Step result of a stage computation
type Step struct {
	Move  Move
	Stage *model.Stage // set when Move == MoveTo
}

// Machine immutable stage catalog, built once at startup
type Machine struct {
	ordered []model.Stage
	byOrder map[int]*model.Stage
	byName  map[string]*model.Stage
	byID    map[uint]*model.Stage
}

// NewMachine validates and indexes the stage rows
func NewMachine(stages []model.Stage) (*Machine, error) {
	if len(stages) == 0 {
		return nil, ErrEmptyCatalog
	}

	ordered := make([]model.Stage, len(stages))
	copy(ordered, stages)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	m := &Machine{
		ordered: ordered,
		byOrder: make(map[int]*model.Stage, len(ordered)),
		byName:  make(map[string]*model.Stage, len(ordered)),
		byID:    make(map[uint]*model.Stage, len(ordered)),
	}
	for i := range m.ordered {
		s := &m.ordered[i]
		if s.Order < 1 {
			return nil, fmt.Errorf("%w: %s has order %d", ErrInvalidOrder, s.Name, s.Order)
		}
		if _, ok := m.byOrder[s.Order]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateOrder, s.Order)
		}
		if _, ok := m.byName[s.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, s.Name)
		}
		m.byOrder[s.Order] = s
		m.byName[s.Name] = s
		m.byID[s.ID] = s
	}
	return m, nil
}

// Stages catalog sorted by order
func (m *Machine) Stages() []model.Stage {
	out := make([]model.Stage, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// Lowest stage with the smallest order
func (m *Machine) Lowest() model.Stage { return m.ordered[0] }

// ByName looks a stage up by its business key
func (m *Machine) ByName(name string) (*model.Stage, bool) {
	s, ok := m.byName[name]
	return s, ok
}

// ByID looks a stage up by primary key
func (m *Machine) ByID(id uint) (*model.Stage, bool) {
	s, ok := m.byID[id]
	return s, ok
}

// ByOrder looks a stage up by position
func (m *Machine) ByOrder(order int) (*model.Stage, bool) {
	s, ok := m.byOrder[order]
	return s, ok
}

// current resolves the stage reference of a graduate; nil means no stage
func (m *Machine) current(stageID *uint) (*model.Stage, error) {
	if stageID == nil {
		return nil, nil
	}
	s, ok := m.byID[*stageID]
	if !ok {
		return nil, apperrors.NewConfigurationError("stage", fmt.Sprintf("id=%d", *stageID), nil)
	}
	return s, nil
}

// Advance computes the next stage.
// No stage targets order 1. A missing target (last stage or a gap in the
// orders) is a silent no-op.
func (m *Machine) Advance(stageID *uint) (Step, error) {
	cur, err := m.current(stageID)
	if err != nil {
		return Step{}, err
	}

	target := 1
	if cur != nil {
		target = cur.Order + 1
	}
	next, ok := m.byOrder[target]
	if !ok {
		return Step{Move: MoveNone}, nil
	}
	return Step{Move: MoveTo, Stage: next}, nil
}

// Retreat computes the previous stage.
// No stage is a no-op. Going below order 1 is a full reset. A missing
// intermediate order is a configuration error.
func (m *Machine) Retreat(stageID *uint) (Step, error) {
	cur, err := m.current(stageID)
	if err != nil {
		return Step{}, err
	}
	if cur == nil {
		return Step{Move: MoveNone}, nil
	}

	target := cur.Order - 1
	if target < 1 {
		return Step{Move: MoveReset}, nil
	}
	prev, ok := m.byOrder[target]
	if !ok {
		return Step{}, apperrors.NewConfigurationError("stage", fmt.Sprintf("order=%d", target), nil)
	}
	return Step{Move: MoveTo, Stage: prev}, nil
}
