package dashboard

import "html/template"

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Security Risk Scorer: sign in</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
:root{
  --bg:#f3f4f6;--surface:#fff;--border:#e5e7eb;
  --text:#111827;--text2:#4b5563;--text3:#9ca3af;
  --accent:#2563eb;--accent-dim:#1d4ed8;--danger:#dc2626;
  --mono:'SF Mono','Fira Code','JetBrains Mono',monospace;
  --sans:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;
}
body{font-family:var(--sans);background:var(--bg);color:var(--text);min-height:100vh;display:flex;align-items:center;justify-content:center}
.login-card{background:var(--surface);border:1px solid var(--border);border-radius:12px;padding:48px 40px;max-width:400px;width:100%;text-align:center;box-shadow:0 1px 3px #0000001a}
.logo{font-size:1.4rem;font-weight:700;margin-bottom:8px}
.logo span{color:var(--accent)}
.subtitle{color:var(--text2);font-size:0.85rem;margin-bottom:28px}
.help{color:var(--text3);font-size:0.78rem;margin-bottom:20px;line-height:1.6}
.help code{background:var(--bg);padding:2px 6px;border-radius:4px;font-family:var(--mono);font-size:0.75rem;color:var(--accent)}
input[type=text],select{
  width:100%;padding:12px 14px;background:var(--surface);border:1px solid var(--border);
  border-radius:8px;color:var(--text);font-size:1rem;outline:none;margin-bottom:12px
}
input[type=text]{font-family:var(--mono);font-size:1.2rem;text-align:center;letter-spacing:4px}
input[type=text]:focus,select:focus{border-color:var(--accent)}
button{width:100%;padding:12px;margin-top:4px;background:var(--accent);color:#fff;border:none;border-radius:8px;font-size:0.9rem;font-weight:600;cursor:pointer}
button:hover{background:var(--accent-dim)}
.error{color:var(--danger);font-size:0.82rem;margin-top:12px}
</style>
</head>
<body>
<div class="login-card">
  <div class="logo">Security <span>Risk Scorer</span></div>
  <div class="subtitle">Dashboard Access</div>
  <p class="help">Enter the access code shown in your terminal.<br>Run <code>riskscorer serve</code> to get a code.</p>
  <form method="POST" action="/dashboard/login" autocomplete="off">
    <input type="text" name="code" placeholder="00000000" maxlength="8" pattern="\d{8}" inputmode="numeric" autofocus required>
    <select name="role" aria-label="Role">
      {{range .Roles}}<option value="{{.Value}}"{{if eq .Value $.Default}} selected{{end}}>{{.Label}}</option>{{end}}
    </select>
    <button type="submit">Sign in</button>
  </form>
  {{if .Error}}<p class="error">{{.Error}}</p>{{end}}
</div>
</body>
</html>`))

const layoutHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
{{if .Loading}}<meta http-equiv="refresh" content="1">{{end}}
<title>Security Risk Scorer: {{.Label}}</title>
<style>
*{margin:0;padding:0;box-sizing:border-box}
:root{
  --bg:#f3f4f6;--surface:#fff;--surface2:#f9fafb;--border:#e5e7eb;
  --text:#111827;--text2:#4b5563;--text3:#9ca3af;
  --accent:#2563eb;--accent-dim:#1d4ed8;
  --high:#dc2626;--medium:#ea580c;--low:#d97706;--good:#16a34a;
  --mono:'SF Mono','Fira Code','JetBrains Mono',monospace;
  --sans:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;
}
body{font-family:var(--sans);background:var(--bg);color:var(--text);min-height:100vh}

/* Header */
header{background:var(--surface);border-bottom:1px solid var(--border)}
header .bar{max-width:1100px;margin:0 auto;padding:14px 24px;display:flex;align-items:center;gap:12px}
header h1{font-size:1.25rem;font-weight:700;flex:1}
header form{display:inline}
header select,header button{padding:6px 10px;border:1px solid var(--border);border-radius:6px;background:var(--surface);font-size:0.82rem;cursor:pointer}
header button.primary{background:var(--accent);color:#fff;border-color:var(--accent)}

/* Tabs */
nav{max-width:1100px;margin:0 auto;padding:0 24px;display:flex;gap:4px;border-bottom:1px solid var(--border);overflow-x:auto}
nav a{color:var(--text2);text-decoration:none;font-size:0.85rem;font-weight:500;padding:12px 14px;border-bottom:2px solid transparent;white-space:nowrap}
nav a:hover{color:var(--text)}
nav a.active{color:var(--accent);border-bottom-color:var(--accent)}

main{max-width:1100px;margin:0 auto;padding:24px}
h2{font-size:1.15rem;font-weight:700;margin-bottom:16px}
h3{font-size:0.95rem;font-weight:600;margin-bottom:12px}
.card{background:var(--surface);border:1px solid var(--border);border-radius:12px;padding:20px;margin-bottom:20px}
.grid{display:grid;gap:16px}
.grid-2{grid-template-columns:repeat(2,1fr)}
.grid-3{grid-template-columns:repeat(3,1fr)}
.grid-4{grid-template-columns:repeat(4,1fr)}
.stat{background:var(--surface2);border-radius:10px;padding:20px;text-align:center}
.stat .label{color:var(--text2);font-size:0.78rem;margin-bottom:6px}
.stat .value{font-size:2rem;font-weight:700}
.muted{color:var(--text3);font-size:0.78rem}
.flash{background:#fef2f2;color:var(--high);border:1px solid #fecaca;border-radius:8px;padding:10px 14px;margin-bottom:16px;font-size:0.85rem}

.risk-green{color:var(--good)}
.risk-orange{color:var(--medium)}
.risk-red{color:var(--high)}

.track{background:var(--border);border-radius:999px;height:8px;overflow:hidden;margin-top:8px}
.fill{height:100%;border-radius:999px;background:var(--accent)}

/* Charts */
.bars{display:flex;align-items:flex-end;gap:16px;height:160px;padding-top:8px}
.bars .col{flex:1;display:flex;flex-direction:column;align-items:center;justify-content:flex-end;height:100%}
.bars .col div{width:100%;border-radius:6px 6px 0 0}
.bars .col span{font-size:0.72rem;color:var(--text2);margin-top:6px}
.pie{width:160px;height:160px;border-radius:50%;margin:0 auto}
.legend{display:flex;flex-wrap:wrap;gap:10px;justify-content:center;margin-top:12px;font-size:0.75rem;color:var(--text2)}
.legend i{display:inline-block;width:10px;height:10px;border-radius:2px;margin-right:4px;vertical-align:middle}

/* Table */
table{width:100%;border-collapse:collapse;font-size:0.85rem}
th{text-align:left;color:var(--text3);font-size:0.7rem;text-transform:uppercase;letter-spacing:1px;padding:8px 12px;border-bottom:1px solid var(--border)}
td{padding:10px 12px;border-bottom:1px solid var(--border);color:var(--text2)}
td.desc{max-width:320px;white-space:nowrap;overflow:hidden;text-overflow:ellipsis}

.pill{padding:2px 8px;border-radius:999px;font-size:0.72rem;font-weight:600}
.sev-High,.st-Open{background:#fee2e2;color:#991b1b}
.sev-Medium{background:#ffedd5;color:#9a3412}
.sev-Low{background:#fef3c7;color:#92400e}
.st-progress{background:#dbeafe;color:#1e40af}
.st-Resolved{background:#dcfce7;color:#166534}

.prio{border-radius:10px;padding:14px;border:1px solid var(--border)}
.prio-high{background:#fef2f2}.prio-high .fill{background:var(--high)}
.prio-medium{background:#fff7ed}.prio-medium .fill{background:var(--medium)}
.prio-low{background:#f0fdf4}.prio-low .fill{background:var(--good)}

.tone-good{background:var(--good)}
.tone-fair{background:#facc15}
.tone-poor{background:var(--high)}

label{display:block;font-size:0.82rem;color:var(--text2);margin-bottom:4px}
input[type=text],input[type=password],select.field,textarea{width:100%;padding:8px 10px;border:1px solid var(--border);border-radius:6px;font-size:0.85rem;margin-bottom:12px}
.btn{display:inline-block;padding:8px 14px;border-radius:6px;border:1px solid var(--border);background:var(--surface);font-size:0.82rem;cursor:pointer;text-decoration:none;color:var(--text)}
.btn.primary{background:var(--accent);color:#fff;border-color:var(--accent)}
.btn:disabled{opacity:0.5;cursor:not-allowed}

.loading{text-align:center;padding:80px 0;color:var(--text2)}
.spinner{width:32px;height:32px;border:3px solid var(--border);border-top-color:var(--accent);border-radius:50%;margin:0 auto 12px;animation:spin 1s linear infinite}
@keyframes spin{to{transform:rotate(360deg)}}

/* Cathedral */
.cathedral{background:#0b0b1a;color:#e0e0ff;border-radius:12px;padding:20px}
.cathedral h3{color:#b19fff}
.transcript{list-style:none;max-height:360px;overflow-y:auto;margin-bottom:12px}
.transcript li{padding:8px 10px;border-radius:8px;margin-bottom:6px;font-size:0.85rem;background:#16163a}
.transcript li.sent{background:#1e3a8a;text-align:right}
.transcript li.error{background:#450a0a;color:#fecaca}
.transcript .meta{font-size:0.7rem;color:#8888cc;margin-top:4px}
.fragment{border-left:4px solid;padding:8px 12px;margin-bottom:8px;background:#16163a;border-radius:6px}
.fragment.collected{opacity:0.6}

@media(max-width:768px){
  .grid-2,.grid-3,.grid-4{grid-template-columns:1fr}
}
</style>
</head>
<body>
<header>
  <div class="bar">
    <h1>Security Risk Scorer</h1>
    <form method="POST" action="/dashboard/role">
      <select name="role" aria-label="Role" onchange="this.form.submit()">
        {{range .Roles}}<option value="{{.Value}}"{{if eq .Value $.Role}} selected{{end}}>{{.Label}}</option>{{end}}
      </select>
      <noscript><button type="submit">Switch</button></noscript>
    </form>
    <form method="POST" action="/dashboard/refresh"><button type="submit" class="primary">{{if .Loading}}Refreshing...{{else}}Refresh{{end}}</button></form>
    <form method="POST" action="/dashboard/logout"><button type="submit">Sign out</button></form>
  </div>
</header>
<nav>
  {{range .Tabs}}<a href="/dashboard/{{.Value}}" class="{{if eq .Value $.Active}}active{{end}}">{{.Label}}</a>{{end}}
</nav>
<main>
{{if .Flash}}<div class="flash">{{.Flash}}</div>{{end}}`

const layoutFoot = `</main>
</body>
</html>`

var loadingTmpl = template.Must(template.New("loading").Parse(layoutHead + `
<div class="loading" id="loading">
  <div class="spinner"></div>
  <p>Loading security data...</p>
</div>
` + layoutFoot))

var overviewTmpl = template.Must(template.New("overview").Parse(layoutHead + `
<div class="card">
  <h2>Security Posture Summary</h2>
  <div class="grid grid-3">
    <div class="stat">
      <div class="label">Security Score</div>
      <div class="value risk-{{.RiskColor}}" id="security-score">{{.Metrics.SecurityScore}}/100</div>
      <div class="track"><div class="fill" style="width:{{.Metrics.SecurityScore}}%"></div></div>
    </div>
    <div class="stat">
      <div class="label">Risk Level</div>
      <div class="value risk-{{.RiskColor}}" id="risk-level">{{.Metrics.RiskLevel}}</div>
    </div>
    <div class="stat">
      <div class="label">Open Violations</div>
      <div class="value">{{.Open}}</div>
      <p class="muted">{{.InProgress}} in progress</p>
    </div>
  </div>
</div>

<div class="card">
  <h2>Security Insights</h2>
  <div class="grid grid-2">
    <div>
      <h3>Violation Severity Distribution</h3>
      <div class="bars">
        {{range .SeverityBars}}<div class="col"><div style="height:{{.Width}}%;background:{{.Color}}"></div><span>{{.Name}} ({{.Value}})</span></div>{{end}}
      </div>
    </div>
    <div>
      <h3>Compliance Status</h3>
      <div class="pie" style="{{.PieStyle}}"></div>
      <div class="legend">
        {{range .Compliance}}<span><i style="background:{{.Color}}"></i>{{.Name}} {{.Value}}%</span>{{end}}
      </div>
    </div>
  </div>
</div>

{{if .Show.ComplianceSummary}}
<div class="card" id="compliance-summary">
  <h3>Compliance Summary</h3>
  <table>
    <thead><tr><th>Framework</th><th>Compliance %</th><th>Critical Issues</th><th>Major Issues</th><th>Minor Issues</th></tr></thead>
    <tbody>
    {{range .Frameworks}}
      <tr>
        <td>{{.Framework}}</td>
        <td>{{.Compliant}}%<div class="track"><div class="fill tone-{{.Tone}}" style="width:{{.Compliant}}%"></div></div></td>
        <td>{{.Critical}}</td>
        <td>{{.Major}}</td>
        <td>{{.Minor}}</td>
      </tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}

{{if .Show.InvestmentPriorities}}
<div class="card" id="investment-priorities">
  <h3>Security Investment Priorities</h3>
  <div class="grid grid-4">
    {{range .Priorities}}
    <div class="prio prio-{{.Tone}}">
      <strong>{{.Area}}</strong>
      <p class="muted">{{.Level}}</p>
      <div class="track"><div class="fill" style="width:{{.Width}}%"></div></div>
      <p class="muted">{{.Detail}}</p>
    </div>
    {{end}}
  </div>
</div>
{{end}}
` + layoutFoot))

var violationsTmpl = template.Must(template.New("violations").Parse(layoutHead + `
<div class="card">
  <h2>Security Violations</h2>
  <table>
    <thead>
      <tr>
        <th>ID</th><th>Severity</th><th>Category</th><th>Description</th><th>Status</th><th>Age</th>
        {{if .Show.ViolationActions}}<th id="violation-actions">Actions</th>{{end}}
      </tr>
    </thead>
    <tbody>
    {{range .Violations}}
      <tr>
        <td>#{{.ID}}</td>
        <td><span class="pill sev-{{.Severity}}">{{.Severity}}</span></td>
        <td>{{.Category}}</td>
        <td class="desc" title="{{.Description}}">{{.Description}}</td>
        <td><span class="pill {{if eq .Status "In Progress"}}st-progress{{else}}st-{{.Status}}{{end}}">{{.Status}}</span></td>
        <td>{{.Age}}</td>
        {{if $.Show.ViolationActions}}<td><button class="btn">Edit</button> <button class="btn">Resolve</button></td>{{end}}
      </tr>
    {{end}}
    </tbody>
  </table>
</div>
` + layoutFoot))

var complianceTmpl = template.Must(template.New("compliance").Parse(layoutHead + `
<div class="card">
  <div style="display:flex;justify-content:space-between;align-items:center;margin-bottom:16px">
    <h2 style="margin:0">Compliance Reports</h2>
    <a class="btn primary" href="/dashboard/report" target="_blank" rel="noopener">Export PDF Report</a>
  </div>

  <h3>Organization Information</h3>
  <div class="grid grid-2" style="margin-bottom:20px">
    <div><p class="muted">Organization Name</p><p>{{.Org.Name}}</p></div>
    <div><p class="muted">Security Contact</p><p>{{.Org.SecurityContact}}</p></div>
    <div><p class="muted">Compliance Officer</p><p>{{.Org.ComplianceOfficer}}</p></div>
  </div>

  <h3>Executive Summary</h3>
  <div class="grid grid-3" style="margin-bottom:12px">
    <div class="stat"><div class="label">Security Score</div><div class="value">{{.Metrics.SecurityScore}}/100</div></div>
    <div class="stat"><div class="label">Risk Level</div><div class="value risk-{{.RiskColor}}">{{.Metrics.RiskLevel}}</div></div>
    <div class="stat"><div class="label">Critical Issues</div><div class="value risk-red">{{.TotalCritical}}</div></div>
  </div>
  <p class="muted" style="margin-bottom:20px">{{.Summary}}</p>

  {{range .Frameworks}}
  <div class="card">
    <h3>{{.Framework}} Compliance</h3>
    <p class="muted">Overall Compliance {{.Compliant}}%</p>
    <div class="track"><div class="fill tone-{{.Tone}}" style="width:{{.Compliant}}%"></div></div>
    <div class="grid grid-3" style="margin-top:12px">
      <div>Critical Issues <strong>{{.Critical}}</strong></div>
      <div>Major Issues <strong>{{.Major}}</strong></div>
      <div>Minor Issues <strong>{{.Minor}}</strong></div>
    </div>
    <p class="muted" style="margin-top:8px">{{.Remark}}</p>
  </div>
  {{end}}
</div>
` + layoutFoot))

var settingsTmpl = template.Must(template.New("settings").Parse(layoutHead + `
<div class="card">
  <h2>Dashboard Settings</h2>
  <div class="grid grid-2">
    <div>
      <h3>Risk Assessment Configuration</h3>
      <label>Risk Calculation Method</label>
      <select class="field"><option>NIST 800-30</option><option>OWASP Risk Assessment</option><option>Custom Formula</option></select>
      <label>Refresh Interval</label>
      <select class="field"><option>Every 6 hours</option><option>Daily</option><option>Weekly</option></select>
    </div>
    <div>
      <h3>Notification Settings</h3>
      <label><input id="email-alerts" type="checkbox" checked> Email alerts for critical violations</label>
      <label><input id="slack-alerts" type="checkbox"> Slack notifications for all violations</label>
      <label><input id="weekly-report" type="checkbox" checked> Weekly summary report</label>
    </div>
  </div>
  {{if .Show.AdvancedSettings}}
  <div id="advanced-settings" style="margin-top:20px">
    <h3>Advanced Settings</h3>
    <label>API Key</label>
    <input type="password" value="••••••••••••••••" readonly>
    <label>Webhook URL</label>
    <input type="text" value="https://api.example.com/webhook">
  </div>
  {{end}}
  <button class="btn primary" type="button">Save Settings</button>
</div>
` + layoutFoot))

var integrationsTmpl = template.Must(template.New("integrations").Parse(layoutHead + `
<h2>Security Tool Integrations</h2>
<div class="grid grid-3">
  {{range .Integrations}}
  <div class="card" id="integration-{{.ID}}">
    <h3>{{.Name}}</h3>
    <p class="muted" style="margin-bottom:12px">{{.Description}}</p>
    <button class="btn" type="button">Configure Integration</button>
  </div>
  {{end}}
</div>
<div class="card">
  <h3>API Integration</h3>
  <label>Webhook URL:</label>
  <input type="text" id="webhook-url" value="{{.Webhook}}" readonly>
  <button class="btn" type="button" onclick="navigator.clipboard.writeText(document.getElementById('webhook-url').value)">Copy</button>
  <p class="muted" style="margin-top:12px">Documentation: API Reference Guide</p>
</div>
` + layoutFoot))

var cathedralTmpl = template.Must(template.New("cathedral").Parse(layoutHead + `
{{with .Cathedral}}
<div class="cathedral">
  <div class="grid grid-2">
    <div>
      <h3>Quantum Bridge</h3>
      {{if .Enabled}}
      <p id="bridge-status" class="muted" style="margin-bottom:12px">{{.Status}}</p>
      <form method="POST" action="/dashboard/cathedral/glyph" style="margin-bottom:12px">
        <select name="glyph" class="field" onchange="this.form.submit()">
          {{range .Council}}<option value="{{.Name}}"{{if eq .Name $.Cathedral.Glyph}} selected{{end}}>{{.Name}} · {{.Role}}</option>{{end}}
        </select>
      </form>
      <p class="muted" style="margin-bottom:12px">Consulting {{.Glyph}}, the {{.GlyphRole}}</p>
      <ul class="transcript" id="transcript">
        {{range .Entries}}
        <li class="{{.Direction}}{{if .Error}} error{{end}}">
          {{.Content}}
          {{if .Glyph}}<div class="meta">{{.Glyph}}{{if .Consciousness}} · shift: {{.Consciousness}}{{end}}</div>{{end}}
        </li>
        {{end}}
      </ul>
      <form method="POST" action="/dashboard/cathedral/query">
        <textarea name="query" rows="2" placeholder="Ask the council..."{{if not .CanSend}} disabled{{end}}></textarea>
        <button class="btn primary" type="submit"{{if not .CanSend}} disabled{{end}}>Consult</button>
      </form>
      {{else}}
      <p class="muted">The Cathedral bridge is disabled.</p>
      {{end}}
    </div>
    <div>
      <h3>Resonance {{.Resonance}}/{{.Max}} · {{.State}}</h3>
      <form method="POST" action="/dashboard/cathedral/resonance" style="margin-bottom:12px">
        <button class="btn" name="dir" value="down">−</button>
        <button class="btn" name="dir" value="up">+</button>
      </form>
      <p class="muted">Oscillation {{printf "%.1f" .Readings.OscillationHz}} Hz · Entropy {{.Readings.Entropy}} · Stability {{.Readings.Stability}}%</p>

      <h3 style="margin-top:20px">Codex {{.Collected}}/{{.Total}}</h3>
      {{range .Fragments}}
      <div class="fragment{{if .Collected}} collected{{end}}" style="border-color:{{.Color}}">
        <strong>{{.PhaseName}}</strong> <span class="muted">{{.Frequency}} Hz · {{.Category}}</span>
        <p class="muted">{{.Meaning}}</p>
        {{if not .Collected}}<form method="POST" action="/dashboard/cathedral/collect/{{.ID}}"><button class="btn">Collect</button></form>{{end}}
      </div>
      {{end}}
    </div>
  </div>
</div>
{{if .Enabled}}
<script>
(function(){
  var list = document.getElementById('transcript');
  var es = new EventSource('/dashboard/cathedral/events');
  es.onmessage = function(ev){
    var e = JSON.parse(ev.data);
    var li = document.createElement('li');
    li.className = e.direction + (e.error ? ' error' : '');
    li.textContent = e.content;
    list.appendChild(li);
    list.scrollTop = list.scrollHeight;
  };
})();
</script>
{{end}}
{{end}}
` + layoutFoot))

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page{size:A4;margin:20mm}
*{margin:0;padding:0;box-sizing:border-box}
body{font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;color:#111827;padding:24px;max-width:800px;margin:0 auto}
h1{font-size:1.4rem;margin-bottom:16px}
h2{font-size:1.1rem;margin:20px 0 10px}
.grid{display:grid;grid-template-columns:repeat(2,1fr);gap:8px;margin-bottom:12px}
.label{color:#6b7280;font-size:0.8rem}
.track{background:#e5e7eb;border-radius:999px;height:10px;overflow:hidden;margin:6px 0}
.fill{height:100%}
.print-break{page-break-before:always;break-before:page}
.print-hide{margin-bottom:20px;padding:8px 14px;border:1px solid #2563eb;background:#2563eb;color:#fff;border-radius:6px;cursor:pointer}
@media print{.print-hide{display:none}body{padding:0}}
</style>
</head>
<body>
<button class="print-hide" onclick="window.print()">Print / Save as PDF</button>
<h1>Compliance Report</h1>

<h2>Organization Information</h2>
<div class="grid">
  <div><div class="label">Organization Name</div>{{.Organization.Name}}</div>
  <div><div class="label">Report Date</div>{{.Date.Format "January 2, 2006"}}</div>
  <div><div class="label">Security Contact</div>{{.Organization.SecurityContact}}</div>
  <div><div class="label">Compliance Officer</div>{{.Organization.ComplianceOfficer}}</div>
</div>

<h2>Executive Summary</h2>
<div class="grid">
  <div><div class="label">Security Score</div>{{.Metrics.SecurityScore}}/100</div>
  <div><div class="label">Risk Level</div><span style="color:{{.RiskColor}}">{{.Metrics.RiskLevel}}</span></div>
  <div><div class="label">Critical Issues</div>{{.TotalCritical}}</div>
</div>
<p>{{.Summary}}</p>

{{range .Frameworks}}
<section class="print-break">
  <h2>{{.Framework}} Compliance</h2>
  <div class="label">Overall Compliance {{.Compliant}}%</div>
  <div class="track"><div class="fill" style="width:{{.Compliant}}%;background:{{.Color}}"></div></div>
  <div class="grid">
    <div>Critical Issues: {{.Critical}}</div>
    <div>Major Issues: {{.Major}}</div>
    <div>Minor Issues: {{.Minor}}</div>
  </div>
  <p>{{.Remark}}</p>
</section>
{{end}}
</body>
</html>`))
