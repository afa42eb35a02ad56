package web

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sweeney/machine-sensor/internal/status"
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
	"state":      status.StateOrUnknown,
	"stateClass": func(m status.MachineState) string { return strings.ToLower(status.StateOrUnknown(m)) },
	"ago": func(now, t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return now.Sub(t).Truncate(time.Second).String() + " ago"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Machine Sensor</title>
<style>
body { font-family: monospace; max-width: 760px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.err { color: red; font-size: 0.9em; }
</style>
</head>
<body>
<h1>Machine Sensor</h1>

<h2>Machines</h2>
<table>
<tr><th>ID</th><th>Channel</th>{{if eq .Config.Mode "logging"}}<th>Last sample (x, y, z)</th><th>Samples</th>{{else}}<th>State</th><th>Variance</th><th>ON / OFF / UNKNOWN</th>{{end}}<th>Skipped</th><th>Updated</th></tr>
{{range .Machines}}<tr>
<td>{{.ID}}</td><td>{{.Channel}}</td>
{{if eq $.Config.Mode "logging"}}<td>{{with .LastSample}}{{printf "%.2f, %.2f, %.2f" .X .Y .Z}}{{else}}-{{end}}</td><td>{{.Counts.Samples}}</td>
{{else}}<td class="{{stateClass .}}">{{state .}}</td><td>{{if .HasVariance}}{{printf "%.1f" .Variance}}{{else}}-{{end}}</td><td>{{.Counts.On}} / {{.Counts.Off}} / {{.Counts.Unknown}}</td>
{{end}}<td>{{.Counts.Skipped}}</td><td>{{ago $.Now .Updated}}</td>
</tr>
{{if .LastError}}<tr><td></td><td colspan="6" class="err">{{.LastError}}</td></tr>{{end}}
{{else}}<tr><td colspan="7">no machines configured</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>Collector</th><td>{{if .Config.Collector}}{{.Config.Collector}}{{else}}-{{end}}</td></tr>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Mode</th><td>{{.Config.Mode}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{if eq .Config.Mode "logging"}}<tr><th>Log interval</th><td>{{.Config.LogIntervalMs}}ms</td></tr>
<tr><th>Store</th><td>{{.Config.Store}}</td></tr>{{else}}<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>{{end}}
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		slog.Debug("Status page render failed.", "err", err)
	}
}
