package web

import (
	"strconv"

	"github.com/a-h/templ"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

func text(value string) string {
	return templ.EscapeString(value)
}

func stateLabel(view StatusView) string {
	switch {
	case view.EventEnded:
		return "Ended"
	case view.Paused:
		return "Paused"
	default:
		return "Running"
	}
}
