package live

import "github.com/gateadmin/internal/listctl"

type EventType string

// Incoming events map one-to-one onto list controller operations.
const (
	EventLoad          EventType = "load"
	EventSetPage       EventType = "set_page"
	EventSetLimit      EventType = "set_limit"
	EventSearch        EventType = "search"
	EventRefresh       EventType = "refresh"
	EventOpenCreate    EventType = "open_create"
	EventOpenUpdate    EventType = "open_update"
	EventOpenDelete    EventType = "open_delete"
	EventCloseModal    EventType = "close_modal"
	EventDraftChange   EventType = "draft_change"
	EventSubmit        EventType = "submit"
	EventConfirmDelete EventType = "confirm_delete"
)

// Outgoing events.
const (
	EventState EventType = "state"
	EventError EventType = "error"
	// EventSignedOut tells the page to navigate to /signin: the Gate API rejected
	// the token or the browser session was signed out elsewhere.
	EventSignedOut EventType = "signed_out"
)

// IncomingMessage is what the page sends to the server.
type IncomingMessage struct {
	Type EventType `json:"type"`

	// set_page / set_limit
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`

	// search, draft_change
	Value string `json:"value,omitempty"`
	Field string `json:"field,omitempty"`

	// open_update / open_delete: row key "IdCabang-id"
	Key string `json:"key,omitempty"`
}

// OutgoingMessage is what the server sends to the page.
type OutgoingMessage struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// ErrorPayload reports a failed operation. The same message is also part of the
// next state snapshot when the controller keeps it.
type ErrorPayload struct {
	Op      EventType `json:"op"`
	Message string    `json:"message"`
}

func stateMessage(s listctl.State) OutgoingMessage {
	return OutgoingMessage{Type: EventState, Payload: s}
}
