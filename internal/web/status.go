package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Status renders a read-only overview of the countdown and submissions. The
// clock keeps itself current through the timer websocket.
func Status(view StatusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Hackathon Status</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <span class="tag">Hackathon Portal</span>
        <h1 id="clock">`+text(view.FormattedTime)+`</h1>
        <p id="state">`+text(stateLabel(view))+`</p>
      </header>
      <section class="panel">
        <dl>
          <dt>Duration</dt><dd>`+itoa(view.DurationMinutes)+` minutes</dd>
          <dt>Teams</dt><dd id="teams">`+itoa(view.TotalTeams)+`</dd>
          <dt>Submitted</dt><dd id="submitted">`+itoa(view.Submitted)+`</dd>
          <dt>Locked</dt><dd id="locked">`+itoa(view.Locked)+`</dd>
          <dt>Live connections</dt><dd>`+itoa(view.Connections)+`</dd>
          <dt>Uptime</dt><dd>`+text(view.Uptime)+`</dd>
        </dl>
      </section>
    </main>
    <script>
      const clock = document.getElementById("clock");
      const state = document.getElementById("state");
      const scheme = location.protocol === "https:" ? "wss://" : "ws://";
      const ws = new WebSocket(scheme + location.host + "/ws");
      ws.addEventListener("message", (msg) => {
        const data = JSON.parse(msg.data);
        if (data.event === "timerUpdate" || data.event === "testEnded") {
          clock.textContent = data.data.formattedTime;
          state.textContent = data.event === "testEnded" ? "Ended" : (data.data.paused ? "Paused" : "Running");
        }
      });
    </script>
  </body>
</html>`)
		return err
	})
}
