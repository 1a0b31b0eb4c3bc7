package app

import "fmt"

// ValidationError reports rejected user input. The operation aborts before
// any store call, so no state changes when one is returned.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Steps of the composite pay-reminder operation.
const (
	PayStepInsert = "insert-transaction"
	PayStepRemove = "remove-reminder"
)

// PayReminderError reports which step of paying a reminder failed, so a
// caller can tell "nothing happened" apart from "the expense was recorded
// but the reminder still needs manual removal".
type PayReminderError struct {
	Step                string
	TransactionRecorded bool
	Err                 error
}

func (e *PayReminderError) Error() string {
	if e.TransactionRecorded {
		return fmt.Sprintf("pay reminder: expense recorded but %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("pay reminder: %s failed, reminder left in place: %v", e.Step, e.Err)
}

func (e *PayReminderError) Unwrap() error { return e.Err }
