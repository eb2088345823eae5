package report

import (
	"bytes"
	"html/template"
	"io"
)

// WriteHTML renders rep as a standalone HTML page.
func WriteHTML(w io.Writer, rep Report) error {
	type view struct {
		Report
		Keys []string
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, view{Report: rep, Keys: Keys()}); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

var tpl = template.Must(template.New("rep").Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>Accelerator Cost Report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px;margin-bottom:18px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
.small{color:#555}
.total{font-weight:bold;background:#f5f5f5}
</style>

<h1>Accelerator Cost Report</h1>

<p class="small">
Run: <code>{{.RunID}}</code> &nbsp;|&nbsp;
Generated: {{.Generated.Format "2006-01-02 15:04:05"}} &nbsp;|&nbsp;
Configurations: {{len .Results}}
</p>

{{range $r := .Results}}
<h2>{{$r.Config}}</h2>
<table>
<thead><tr><th>category</th><th>latency (s)</th><th>energy (J)</th></tr></thead>
<tbody>
{{range $k := $.Keys}}{{with index $r.Totals $k}}
<tr{{if eq $k "total"}} class="total"{{end}}>
<td style="text-align:left">{{$k}}</td>
<td>{{printf "%.6e" .Latency}}</td>
<td>{{printf "%.6e" .Energy}}</td>
</tr>
{{end}}{{end}}
</tbody>
</table>

<table>
<thead><tr><th>layer</th><th>category</th><th>source</th><th>latency (s)</th><th>energy (J)</th></tr></thead>
<tbody>
{{range $r.Layers}}
<tr>
<td style="text-align:left">{{.Name}}</td>
<td>{{.Category}}</td>
<td>{{if .Exact}}exact{{else}}scaled{{end}}</td>
<td>{{printf "%.6e" .LatencyS}}</td>
<td>{{printf "%.6e" .EnergyJ}}</td>
</tr>
{{end}}
</tbody>
</table>
{{end}}
</html>`))
