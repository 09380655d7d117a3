package agent

// UserCancelError reports that a human declined a sensitive-action
// confirmation, ending the task.
type UserCancelError struct {
	Message string
}

func (e *UserCancelError) Error() string { return e.Message }

// BudgetError reports that the step budget was exhausted before the task
// reached finish().
type BudgetError struct {
	MaxSteps int
}

func (e *BudgetError) Error() string {
	return "Max steps reached"
}
