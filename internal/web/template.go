package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/mistfan/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"seconds": func(d time.Duration) string {
		return fmt.Sprintf("%gs", d.Seconds())
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Mist Fan</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Mist Fan</h1>

<h2>State</h2>
<table>
<tr><th>Mist</th><td class="{{if .MistOn}}on{{else}}off{{end}}">{{if .MistOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Fan</th><td class="{{if .FanPercent}}on{{else}}off{{end}}">{{.FanPercent}}%</td></tr>
<tr><th>Mist cycle</th><td>{{if .Cycle.Active}}{{seconds .Cycle.On}} on / {{seconds .Cycle.Off}} off{{else}}none{{end}}</td></tr>
<tr><th>Idle deadline</th><td>{{if .WatchdogDeadline.IsZero}}disarmed{{else}}{{.WatchdogDeadline.UTC.Format "2006-01-02T15:04:05Z"}}{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Gestures</th><td>{{.Counts.Gestures}}</td></tr>
<tr><th>Mist pulses</th><td>{{.Counts.MistPulses}}</td></tr>
<tr><th>Cycles started</th><td>{{.Counts.CyclesStarted}}</td></tr>
<tr><th>Cancels</th><td>{{.Counts.Cancels}}</td></tr>
<tr><th>Idle timeouts</th><td>{{.Counts.IdleTimeouts}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Click window</th><td>{{.Config.ClickWindowMs}}ms</td></tr>
<tr><th>Long press</th><td>{{.Config.LongPressMs}}ms</td></tr>
<tr><th>Idle timeout</th><td>{{.Config.IdleTimeoutMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
