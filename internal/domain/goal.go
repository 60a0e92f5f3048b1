package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrGoalNotFound          = NotFound("goal")
	ErrGoalNameEmpty         = invalidField("name", "is required")
	ErrGoalNameTooLong       = invalidField("name", "must be 200 characters or less")
	ErrGoalDescriptionEmpty  = invalidField("description", "is required")
	ErrGoalTargetInvalid     = invalidField("targetAmount", "must be greater than 0")
	ErrGoalCurrentInvalid    = invalidField("currentAmount", "must not be negative")
	ErrGoalTypeInvalid       = invalidField("type", "is not a known goal type")
	ErrGoalTargetDateMissing = invalidField("targetDate", "is required")
	ErrGoalAmountInvalid     = invalidField("amount", "must be greater than 0")

	ErrGoalNotInProgress = &StateError{Message: "goal is not in progress"}
	ErrGoalCancelled     = &StateError{Message: "goal is cancelled"}
)

type GoalType string

const (
	GoalTypeSavings         GoalType = "SAVINGS"
	GoalTypeInvestment      GoalType = "INVESTMENT"
	GoalTypeDebtPayment     GoalType = "DEBT_PAYMENT"
	GoalTypeEmergencyFund   GoalType = "EMERGENCY_FUND"
	GoalTypeVacation        GoalType = "VACATION"
	GoalTypeCarPurchase     GoalType = "CAR_PURCHASE"
	GoalTypeHomeDownPayment GoalType = "HOME_DOWN_PAYMENT"
	GoalTypeEducation       GoalType = "EDUCATION"
	GoalTypeOther           GoalType = "OTHER"
)

func (t GoalType) Valid() bool {
	switch t {
	case GoalTypeSavings, GoalTypeInvestment, GoalTypeDebtPayment, GoalTypeEmergencyFund,
		GoalTypeVacation, GoalTypeCarPurchase, GoalTypeHomeDownPayment, GoalTypeEducation,
		GoalTypeOther:
		return true
	}
	return false
}

type GoalStatus string

const (
	GoalStatusInProgress GoalStatus = "IN_PROGRESS"
	GoalStatusCompleted  GoalStatus = "COMPLETED"
	GoalStatusCancelled  GoalStatus = "CANCELLED"
)

func (s GoalStatus) Valid() bool {
	switch s {
	case GoalStatusInProgress, GoalStatusCompleted, GoalStatusCancelled:
		return true
	}
	return false
}

// Goal is a savings target. Its status only moves forward:
//
//	IN_PROGRESS -> COMPLETED (auto or manual)
//	IN_PROGRESS -> CANCELLED
//	COMPLETED   -> CANCELLED
//
// A goal is always created IN_PROGRESS. CurrentAmount can only change while
// the goal is IN_PROGRESS.
type Goal struct {
	ID            int32           `json:"id"`
	OwnerID       int32           `json:"ownerId"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    time.Time       `json:"targetDate"`
	Type          GoalType        `json:"type"`
	Status        GoalStatus      `json:"status"`
	Version       int32           `json:"-"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (g *Goal) Owner() int32 {
	return g.OwnerID
}

func (g *Goal) Validate() error {
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return ErrGoalNameEmpty
	}
	if len(name) > MaxNameLength {
		return ErrGoalNameTooLong
	}
	if strings.TrimSpace(g.Description) == "" {
		return ErrGoalDescriptionEmpty
	}
	if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return ErrGoalTargetInvalid
	}
	if g.CurrentAmount.IsNegative() {
		return ErrGoalCurrentInvalid
	}
	if !g.Type.Valid() {
		return ErrGoalTypeInvalid
	}
	if g.TargetDate.IsZero() {
		return ErrGoalTargetDateMissing
	}
	return nil
}

// IsTerminal returns true once the goal can no longer accumulate amounts
func (g *Goal) IsTerminal() bool {
	return g.Status != GoalStatusInProgress
}

// AddAmount adds a contribution and auto-completes the goal when the target is
// reached. Overshoot is kept as is.
func (g *Goal) AddAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrGoalAmountInvalid
	}
	if g.IsTerminal() {
		return ErrGoalNotInProgress
	}
	g.CurrentAmount = g.CurrentAmount.Add(amount)
	g.evaluateCompletion()
	return nil
}

// Complete forces the goal to COMPLETED, even below target
func (g *Goal) Complete() error {
	if g.Status == GoalStatusCancelled {
		return ErrGoalCancelled
	}
	g.Status = GoalStatusCompleted
	return nil
}

// Cancel forces the goal to CANCELLED from any state
func (g *Goal) Cancel() {
	g.Status = GoalStatusCancelled
}

// GoalUpdate holds the replaceable fields of a goal
type GoalUpdate struct {
	Name          string
	Description   string
	Type          GoalType
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	TargetDate    time.Time
}

// NewGoal builds an IN_PROGRESS goal from validated fields. Creation never
// auto-completes, even when the current amount already meets the target.
func NewGoal(ownerID int32, u GoalUpdate) (*Goal, error) {
	g := &Goal{OwnerID: ownerID, Status: GoalStatusInProgress}
	next, err := g.withFields(u)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// ApplyUpdate replaces the editable fields. An IN_PROGRESS goal re-evaluates
// auto-completion. A COMPLETED or CANCELLED goal keeps its status and only
// accepts updates that leave CurrentAmount unchanged. The receiver is left
// untouched when the update is rejected.
func (g *Goal) ApplyUpdate(u GoalUpdate) error {
	if g.IsTerminal() && !u.CurrentAmount.Equal(g.CurrentAmount) {
		return ErrGoalNotInProgress
	}
	next, err := g.withFields(u)
	if err != nil {
		return err
	}
	next.evaluateCompletion()
	*g = next
	return nil
}

// withFields returns a validated copy of g carrying the fields of u
func (g *Goal) withFields(u GoalUpdate) (Goal, error) {
	next := *g
	next.Name = strings.TrimSpace(u.Name)
	next.Description = strings.TrimSpace(u.Description)
	next.Type = u.Type
	next.TargetAmount = u.TargetAmount
	next.CurrentAmount = u.CurrentAmount
	next.TargetDate = u.TargetDate
	if err := next.Validate(); err != nil {
		return Goal{}, err
	}
	return next, nil
}

// evaluateCompletion is the auto-completion rule. It never moves a goal back to
// IN_PROGRESS.
func (g *Goal) evaluateCompletion() {
	if g.Status == GoalStatusInProgress && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = GoalStatusCompleted
	}
}

// ProgressPercentage returns min(current/target, 1) * 100, or 0 for a zero target
func (g *Goal) ProgressPercentage() float64 {
	if g.TargetAmount.IsZero() {
		return 0
	}
	ratio := g.CurrentAmount.Div(g.TargetAmount)
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		ratio = decimal.NewFromInt(1)
	}
	pct, _ := ratio.Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

type GoalRepository interface {
	Create(ctx context.Context, goal *Goal) (*Goal, error)
	GetByID(ctx context.Context, id int32) (*Goal, error)
	GetAllByOwner(ctx context.Context, ownerID int32) ([]*Goal, error)
	// Update persists goal if its stored version still equals goal.Version,
	// otherwise it fails with ErrConcurrentUpdate.
	Update(ctx context.Context, goal *Goal) (*Goal, error)
	Delete(ctx context.Context, id int32) error
}
