package usecase

// EventKind tags the shape of an inbound transport event. Deciding the kind
// once at the transport boundary lets the dispatcher match exhaustively
// instead of pattern-matching raw payload strings.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventButton  EventKind = "button"
	EventText    EventKind = "text"
)

// Event is an inbound update tagged with the user identity that produced it.
type Event struct {
	UserID  string
	Name    string
	Kind    EventKind
	Payload string
}

// Choice is one button the transport should render under a message.
type Choice struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// OutboundMessage is one text (plus optional choices) for the transport to
// deliver to a recipient.
type OutboundMessage struct {
	RecipientID string   `json:"recipient_id"`
	Text        string   `json:"text"`
	Choices     []Choice `json:"choices,omitempty"`
}

func reply(userID, text string, choices ...Choice) OutboundMessage {
	return OutboundMessage{RecipientID: userID, Text: text, Choices: choices}
}
