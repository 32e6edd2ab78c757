package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reasons recorded on triggers.
const (
	ReasonSchedule = "schedule"
	ReasonAPI      = "api"
)

// Trigger asks the worker for one corpus refresh.
type Trigger struct {
	ID          string    `json:"id"`
	Reason      string    `json:"reason"`
	Force       bool      `json:"force"`
	RequestedAt time.Time `json:"requested_at"`
}

// New returns a trigger with a fresh ID.
func New(reason string, force bool) Trigger {
	return Trigger{
		ID:          uuid.NewString(),
		Reason:      reason,
		Force:       force,
		RequestedAt: time.Now().UTC(),
	}
}

// Decode parses a trigger message value.
func Decode(data []byte) (Trigger, error) {
	var t Trigger
	if err := json.Unmarshal(data, &t); err != nil {
		return Trigger{}, fmt.Errorf("decode trigger: %w", err)
	}
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return Trigger{}, errors.New("decode trigger: missing id")
	}
	return t, nil
}
