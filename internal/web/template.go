package web

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.View.Heading}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { padding: 0.3em 0.8em; text-align: left; border-bottom: 1px solid #ddd; }
th a { color: inherit; text-decoration: none; }
tr[data-open="false"] { color: #888; }
.banner { padding: 0.5em 1em; margin-bottom: 1em; }
.banner.error { background: #fdd; }
.banner.info { background: #eef; }
.status { color: #666; font-size: 0.9em; }
</style>
</head>
<body>
<h1>{{.View.Heading}}</h1>
{{if .Error}}<div class="banner error">Refresh failed: {{.Error}}</div>{{end}}
{{if .Loading}}<div class="banner info">{{if .HasData}}Refreshing…{{else}}Loading bugs…{{end}}</div>{{end}}
<form method="get" action="">
<input type="hidden" name="open" value="0">
<label><input type="checkbox" name="open" value="1"{{if .View.OpenOnly}} checked{{end}} onchange="this.form.submit()"> Open bugs only</label>
{{if .Sort}}<input type="hidden" name="sort" value="{{.Sort}}"><input type="hidden" name="dir" value="{{.Dir}}">{{end}}
<noscript><button type="submit">Apply</button></noscript>
</form>
{{if .Status}}<p class="status">{{.Status}}</p>{{end}}
{{if .View.Rows}}
<table>
<thead>
<tr>{{range .Headers}}<th><a href="{{.Href}}">{{.Label}}</a></th>{{end}}</tr>
</thead>
<tbody>
{{range .View.Rows}}<tr data-open="{{.Open}}">{{range .Cells}}<td>{{if .Link}}<a href="{{.Link}}" target="_blank" rel="noopener">{{.Text}}</a>{{else}}{{.Text}}{{end}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
{{else if .HasData}}
<p>No bugs to show.</p>
{{end}}
</body>
</html>
`))
