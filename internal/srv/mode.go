package srv

type Mode int64

const (
	MANUAL_MODE Mode = iota
	AUTO_MODE
	SPEED_MODE
	RAMP_MODE
	BEEP_MODE
	PRES_MODE
	STANDBY_MODE
)

var modeLabels = [...]string{
	MANUAL_MODE:  "MANUAL",
	AUTO_MODE:    "AUTO",
	SPEED_MODE:   "SPEED",
	RAMP_MODE:    "RAMP",
	BEEP_MODE:    "BEEP",
	PRES_MODE:    "PRES",
	STANDBY_MODE: "STANDBY",
}

func (m Mode) Label() string {
	if m < MANUAL_MODE || m > STANDBY_MODE {
		return "?"
	}
	return modeLabels[m]
}

// Next cycles through the running modes. Standby is entered explicitly,
// never by cycling.
func (m Mode) Next() Mode {
	if m >= PRES_MODE {
		return MANUAL_MODE
	}
	return m + 1
}
