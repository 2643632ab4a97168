package web

// StatusView is the data rendered by the public status page.
type StatusView struct {
	FormattedTime   string
	TimeRemaining   int
	Paused          bool
	EventEnded      bool
	DurationMinutes int
	TotalTeams      int
	Submitted       int
	Locked          int
	Connections     int
	Uptime          string
}
