package status

// Event is one JSON message on the status channel. Delivery is advisory:
// no acknowledgment and no ordering guarantee across reconnects.
type Event struct {
	Type         string `json:"type"`
	SlideNumber  int    `json:"slide_number,omitempty"`
	CurrentSlide int    `json:"current_slide,omitempty"`
}

const (
	TypeInterrupt     = "interrupt"
	TypeInterruptAck  = "interrupt_ack"
	TypeSlideUpdate   = "slide_update"
	TypeSlideChanged  = "slide_changed"
	TypeSpeakingStart = "speaking_start"
	TypeSpeakingEnd   = "speaking_end"
	TypePing          = "ping"
	TypePong          = "pong"
)

func Interrupt() Event          { return Event{Type: TypeInterrupt} }
func SlideUpdate(n int) Event   { return Event{Type: TypeSlideUpdate, SlideNumber: n} }
func SpeakingStart() Event      { return Event{Type: TypeSpeakingStart} }
func SpeakingEnd() Event        { return Event{Type: TypeSpeakingEnd} }
