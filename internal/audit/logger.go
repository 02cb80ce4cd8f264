package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	MethodID  int64     `json:"method_id,omitempty"`
	Amount    float64   `json:"amount,omitempty"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogMutation(eventType string, methodID int64, details string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: eventType,
		MethodID:  methodID,
		Status:    "SUCCESS",
		Details:   map[string]string{"details": details},
	})
}

func (a *Logger) LogTopUp(methodID int64, amount float64, methodName string) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: "TOP_UP",
		MethodID:  methodID,
		Amount:    amount,
		Status:    "SUCCESS",
		Details:   map[string]string{"method_name": methodName},
	})
}

// LogWriteFailure flags a failed ledger write. The batch write keeps the two
// collections consistent, so a failure here means neither key changed.
func (a *Logger) LogWriteFailure(eventType string, methodID int64, err error) {
	a.log(Event{
		Timestamp: time.Now(),
		EventType: eventType,
		MethodID:  methodID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
