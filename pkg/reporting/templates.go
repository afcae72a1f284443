/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: templates.go
Description: HTML template for the suite run dashboard. Self-contained so a report can be
opened from a CI artifact without network access.
*/

package reporting

// dashboardTemplate renders a Report
const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Mode}} {{.RunID}} - Posterior Enumeration Oracle</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
            color: #333;
        }
        .container { max-width: 1400px; margin: 0 auto; padding: 20px; }
        .header, .panel {
            background: rgba(255, 255, 255, 0.95);
            border-radius: 20px;
            padding: 30px;
            margin-bottom: 30px;
            box-shadow: 0 8px 32px rgba(0, 0, 0, 0.1);
        }
        .header { text-align: center; }
        .header h1 { color: #4a5568; font-size: 2.2rem; margin-bottom: 10px; }
        .header p { color: #718096; }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(180px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }
        .stat-card {
            background: rgba(255, 255, 255, 0.95);
            border-radius: 15px;
            padding: 25px;
            text-align: center;
        }
        .stat-value { font-size: 2rem; font-weight: 700; }
        .stat-label { color: #718096; text-transform: uppercase; font-size: 0.8rem; }
        .fatal { color: #c53030; font-weight: 600; margin-top: 10px; }
        table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
        th, td { padding: 8px 10px; text-align: left; border-bottom: 1px solid #e2e8f0; }
        th { color: #4a5568; }
        td.name, td.latent { font-family: monospace; }
        tr.pass td.status { color: #2f855a; }
        tr.warn td.status { color: #b7791f; }
        tr.fail td.status { color: #c53030; font-weight: 700; }
        tr.skip td.status { color: #718096; }
        .warnings { color: #b7791f; font-size: 0.8rem; }
        details { margin-top: 6px; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h1>Posterior Enumeration Oracle</h1>
        <p>{{.Mode}} &middot; sampler {{.Sampler}} &middot; max size {{.MaxSize}} &middot; run {{.RunID}}</p>
        <p>started {{.StartedAt.Format "2006-01-02 15:04:05 MST"}} &middot; took {{.Duration}}</p>
        {{if .Fatal}}<p class="fatal">{{.Fatal}}</p>{{end}}
    </div>

    <div class="stats-grid">
        <div class="stat-card"><div class="stat-value">{{.Totals.Cases}}</div><div class="stat-label">Cases</div></div>
        <div class="stat-card"><div class="stat-value">{{.Totals.Passed}}</div><div class="stat-label">Passed</div></div>
        <div class="stat-card"><div class="stat-value">{{.Totals.Warned}}</div><div class="stat-label">Warned</div></div>
        <div class="stat-card"><div class="stat-value">{{.Totals.Failed}}</div><div class="stat-label">Failed</div></div>
        <div class="stat-card"><div class="stat-value">{{.Totals.Skipped}}</div><div class="stat-label">Skipped</div></div>
        <div class="stat-card"><div class="stat-value">{{.Totals.Fatal}}</div><div class="stat-label">Fatal</div></div>
    </div>

    <div class="panel">
        <table>
            <thead>
                <tr><th>Status</th><th>Case</th><th>Goodness of fit</th><th>Samples</th><th>Latents</th><th>Time</th><th>Comment</th></tr>
            </thead>
            <tbody>
            {{range .Cases}}
                <tr class="{{lower .Status}}">
                    <td class="status">{{.Status}}</td>
                    <td class="name">{{.Name}}</td>
                    <td>{{gof .GoodnessOfFit}}</td>
                    <td>{{.UsableCount}} / {{.SampleCount}}</td>
                    <td>{{.Distinct}} / {{.Expected}}</td>
                    <td>{{.Duration}}</td>
                    <td>
                        {{.Comment}}
                        {{range .Warnings}}<div class="warnings">{{.}}</div>{{end}}
                        {{if .Table}}
                        <details>
                            <summary>{{len .Table}} latents</summary>
                            <table>
                                <tr><th>expect</th><th>actual</th><th>chi</th><th>latent</th></tr>
                                {{range .Table}}
                                <tr><td>{{gof .Expect}}</td><td>{{.Actual}}</td><td>{{gof .Chi}}</td><td class="latent">{{.Latent}}</td></tr>
                                {{end}}
                            </table>
                        </details>
                        {{end}}
                    </td>
                </tr>
            {{end}}
            </tbody>
        </table>
    </div>
</div>
</body>
</html>
`
