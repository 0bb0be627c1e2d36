// Package events implements the engine's event model (spec.md section 6):
// a typed envelope plus a payload whose schema depends on the event's Type,
// and the sink that fans both out to an in-process callback and/or a
// remote socket.
package events

import "encoding/json"

// Type is one of the seven lifecycle event kinds the C ABI callback and
// remote sink both receive.
type Type string

const (
	TypeStart    Type = "start"
	TypeStartOne Type = "startOne"
	TypeUpdate   Type = "update"
	TypeEndOne   Type = "endOne"
	TypeEnd      Type = "end"
	TypeMsg      Type = "msg"
	TypeErr      Type = "err"
)

// Envelope is the fixed {Type, Name, ShowName, ID} shape every event shares;
// the accompanying data payload varies by Type (spec.md section 6).
type Envelope struct {
	Type     Type   `json:"Type"`
	Name     string `json:"Name,omitempty"`
	ShowName string `json:"ShowName,omitempty"`
	ID       string `json:"ID"`
}

// StartData is the (empty) payload for a "start" event.
type StartData struct{}

// TaskData is the payload shared by "startOne" and "endOne".
type TaskData struct {
	URL      string `json:"URL"`
	SavePath string `json:"SavePath"`
	ShowName string `json:"ShowName"`
	Index    int    `json:"Index"`
	Total    int64  `json:"Total"`
}

// UpdateData is the payload for a coalesced progress "update" event. Total
// is -1 when the Task's size isn't known yet (spec.md section 4.2, 6).
type UpdateData struct {
	Downloaded int64 `json:"Downloaded"`
	Total      int64 `json:"Total"`
}

// EndData is the (empty) payload for an "end" event.
type EndData struct{}

// MsgData carries a free-text informational message, e.g. a degraded-
// telemetry notice when the remote sink gives up reconnecting.
type MsgData struct {
	Text string `json:"Text"`
}

// ErrData carries a human-readable error string for a failed Task or
// session.
type ErrData struct {
	Error string `json:"Error"`
}

// Event pairs an envelope with its data payload, ready for the two-string
// (event_json, data_json) callback/sink wire format.
type Event struct {
	Envelope Envelope
	Data     any
}

// Encode renders the event as the two JSON strings the C ABI callback and
// remote sink both expect.
func (e Event) Encode() (eventJSON, dataJSON string, err error) {
	ev, err := json.Marshal(e.Envelope)
	if err != nil {
		return "", "", err
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		return "", "", err
	}
	return string(ev), string(data), nil
}

func Start(sessionID, sessionName string) Event {
	return Event{Envelope{Type: TypeStart, Name: sessionName, ID: sessionID}, StartData{}}
}

func StartOne(taskID, name, showName string, data TaskData) Event {
	return Event{Envelope{Type: TypeStartOne, Name: name, ShowName: showName, ID: taskID}, data}
}

func Update(taskID, name, showName string, downloaded, total int64) Event {
	return Event{Envelope{Type: TypeUpdate, Name: name, ShowName: showName, ID: taskID}, UpdateData{Downloaded: downloaded, Total: total}}
}

func EndOne(taskID, name, showName string, data TaskData) Event {
	return Event{Envelope{Type: TypeEndOne, Name: name, ShowName: showName, ID: taskID}, data}
}

func End(sessionID string) Event {
	return Event{Envelope{Type: TypeEnd, ID: sessionID}, EndData{}}
}

func Msg(id, text string) Event {
	return Event{Envelope{Type: TypeMsg, ID: id}, MsgData{Text: text}}
}

func Err(id string, err error) Event {
	return Event{Envelope{Type: TypeErr, ID: id}, ErrData{Error: err.Error()}}
}

// IsLossy reports whether this event type is allowed to be dropped under
// queue pressure (only "update" events are; all lifecycle events are
// lossless per spec.md section 4.7).
func (t Type) IsLossy() bool {
	return t == TypeUpdate
}
