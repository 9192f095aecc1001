package event

// PopUp
type InternalEvent struct {
	Data interface{}
}

type InternalEventLabelHideData struct{}

// Ticker
type TickerEvent struct {
	Data interface{}
}

type TickerEventTickData struct{}

// Buttons
type ButtonId int

const (
	MODE_BUTTON ButtonId = iota
	MORE_BUTTON
	LESS_BUTTON
	STANDBY_BUTTON
)

type ButtonEventType int

const (
	PRESS_EVENT_TYPE ButtonEventType = iota
	RELEASE_EVENT_TYPE
)

type ButtonEvent struct {
	ButtonId        ButtonId
	ButtonEventType ButtonEventType
	PressStepCount  int64
}
