package bridge

import (
	"time"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// Command types accepted from clients.
const (
	cmdEnqueue  = "enqueue"
	cmdConfirm  = "confirm"
	cmdCancel   = "cancel"
	cmdReselect = "reselect"
	cmdStatus   = "status"
)

// Message types sent to clients.
const (
	msgEvent     = "event"
	msgReply     = "reply"
	msgCompleted = "completed"
)

// Command is a request from a client. ID is echoed in the reply.
type Command struct {
	ID        string `json:"id,omitempty"`
	Type      string `json:"type"`
	Path      string `json:"path,omitempty"`
	Mode      string `json:"mode,omitempty"`
	RecordID  string `json:"record_id,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	Directory string `json:"directory,omitempty"`
}

// Message is sent to clients. Exactly one of the payload fields is set.
type Message struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`

	Event  *EventPayload  `json:"event,omitempty"`
	Reply  *ReplyPayload  `json:"reply,omitempty"`
	Result *ResultPayload `json:"result,omitempty"`
}

// EventPayload is the wire form of domain.StageEvent.
type EventPayload struct {
	Kind    string    `json:"kind"`
	TaskID  string    `json:"task_id"`
	Path    string    `json:"path,omitempty"`
	Stage   string    `json:"stage,omitempty"`
	State   string    `json:"state,omitempty"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// ReplyPayload answers a command.
type ReplyPayload struct {
	OK          bool            `json:"ok"`
	Error       string          `json:"error,omitempty"`
	Directories []string        `json:"directories,omitempty"`
	Status      *StatusPayload  `json:"status,omitempty"`
	Pending     *PendingPayload `json:"pending,omitempty"`
}

// StatusPayload is the wire form of the queue status.
type StatusPayload struct {
	Busy                 bool   `json:"busy"`
	Queued               int    `json:"queued"`
	CurrentPath          string `json:"current_path,omitempty"`
	AwaitingConfirmation bool   `json:"awaiting_confirmation"`
	Processed            int    `json:"processed"`
}

// PendingPayload is the import parked at the confirmation gate.
type PendingPayload struct {
	TaskID       string   `json:"task_id"`
	Path         string   `json:"path"`
	RecordID     string   `json:"record_id,omitempty"`
	Recommended  string   `json:"recommended_directory"`
	Alternatives []string `json:"alternatives,omitempty"`
	Directories  []string `json:"directories,omitempty"`
}

// ResultPayload reports how an import enqueued by this client finished.
type ResultPayload struct {
	TaskID    string `json:"task_id,omitempty"`
	Path      string `json:"path"`
	Outcome   string `json:"outcome"`
	RecordID  string `json:"record_id,omitempty"`
	SavedPath string `json:"saved_path,omitempty"`
	Ingested  bool   `json:"ingested"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

func eventMessage(ev domain.StageEvent) Message {
	p := &EventPayload{
		Kind:    string(ev.Kind),
		TaskID:  ev.TaskID,
		Path:    ev.Path,
		Stage:   string(ev.Stage),
		State:   string(ev.State),
		Message: ev.Message,
		Time:    ev.Time,
	}
	if ev.Err != nil {
		p.Error = ev.Err.Error()
	}
	return Message{Type: msgEvent, Event: p}
}

func resultMessage(id string, r domain.ImportResult) Message {
	p := &ResultPayload{
		TaskID:    r.TaskID,
		Path:      r.Path,
		Outcome:   string(r.Outcome),
		RecordID:  r.RecordID,
		SavedPath: r.SavedPath,
		Ingested:  r.Ingested,
		Message:   r.Message,
	}
	if r.Err != nil {
		p.Error = r.Err.Error()
	}
	return Message{Type: msgCompleted, ID: id, Result: p}
}

func errorReply(id string, err error) Message {
	return Message{Type: msgReply, ID: id, Reply: &ReplyPayload{Error: err.Error()}}
}

func okReply(id string, reply *ReplyPayload) Message {
	if reply == nil {
		reply = &ReplyPayload{}
	}
	reply.OK = true
	return Message{Type: msgReply, ID: id, Reply: reply}
}

func pendingPayload(p *domain.PendingConfirmation) *PendingPayload {
	return &PendingPayload{
		TaskID:       p.TaskID,
		Path:         p.Path,
		RecordID:     p.RecordID,
		Recommended:  p.Recommended,
		Alternatives: p.Alternatives,
		Directories:  p.Directories,
	}
}
