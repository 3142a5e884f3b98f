package game

import "errors"

// ErrorKind classifies a rejected operation for the transport layer
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindInvalidState ErrorKind = "invalid_state"
	KindValidation   ErrorKind = "validation"
)

var (
	// NotFound
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found in room")
	ErrCardNotInHand  = errors.New("card is not in your hand")
	ErrNoSuchCard     = errors.New("no submission with that number")

	// Forbidden
	ErrNotHost            = errors.New("only the host can do that")
	ErrNotStoryteller     = errors.New("you are not the storyteller")
	ErrStorytellerCantAct = errors.New("the storyteller cannot do that")
	ErrSelfVote           = errors.New("you cannot vote for your own card")

	// InvalidState
	ErrWrongPhase         = errors.New("action not allowed in this phase")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrAlreadySubmitted   = errors.New("you have already submitted a card")
	ErrAlreadyVoted       = errors.New("you have already voted")
	ErrRoomClosed         = errors.New("room has been closed")

	// Validation
	ErrMissingName     = errors.New("player name is required")
	ErrMissingRoomCode = errors.New("room code is required")
	ErrMissingPlayerID = errors.New("player id is required")
	ErrMissingStory    = errors.New("story text is required")
)

var errorKinds = map[error]ErrorKind{
	ErrRoomNotFound:   KindNotFound,
	ErrPlayerNotFound: KindNotFound,
	ErrCardNotInHand:  KindNotFound,
	ErrNoSuchCard:     KindNotFound,

	ErrNotHost:            KindForbidden,
	ErrNotStoryteller:     KindForbidden,
	ErrStorytellerCantAct: KindForbidden,
	ErrSelfVote:           KindForbidden,

	ErrWrongPhase:         KindInvalidState,
	ErrRoomFull:           KindInvalidState,
	ErrGameAlreadyStarted: KindInvalidState,
	ErrNotEnoughPlayers:   KindInvalidState,
	ErrAlreadySubmitted:   KindInvalidState,
	ErrAlreadyVoted:       KindInvalidState,
	ErrRoomClosed:         KindInvalidState,

	ErrMissingName:     KindValidation,
	ErrMissingRoomCode: KindValidation,
	ErrMissingPlayerID: KindValidation,
	ErrMissingStory:    KindValidation,
}

// KindOf reports the kind of a game error, looking through wrapping.
// Unknown errors report an empty kind.
func KindOf(err error) ErrorKind {
	for sentinel, kind := range errorKinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}
