package dashboard

import "html/template"

var pageTemplate = template.Must(template.New("dashboard").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Keeling Curve: Interactive Analysis Dashboard</title>
    <script src="{{.PlotlyCDN}}" charset="utf-8"></script>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            line-height: 1.6;
            color: #2c3e50;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
        }
        .container { max-width: 1400px; margin: 0 auto; background: white; box-shadow: 0 10px 40px rgba(0,0,0,0.3); }
        header {
            background: linear-gradient(135deg, #2c3e50 0%, #34495e 100%);
            color: white;
            padding: 60px 40px;
            text-align: center;
        }
        header h1 { font-size: 3em; margin-bottom: 10px; font-weight: 700; letter-spacing: -1px; }
        header .subtitle { font-size: 1.3em; opacity: 0.9; font-weight: 300; }
        nav {
            background: #34495e;
            padding: 15px 40px;
            position: sticky;
            top: 0;
            z-index: 999;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        nav ul { list-style: none; display: flex; flex-wrap: wrap; justify-content: center; gap: 20px; }
        nav a { color: white; text-decoration: none; padding: 8px 16px; border-radius: 4px; transition: background 0.3s; font-weight: 500; }
        nav a:hover { background: rgba(255,255,255,0.1); }
        section { padding: 60px 40px; border-bottom: 1px solid #ecf0f1; }
        section:nth-child(even) { background: #f8f9fa; }
        .section-header { margin-bottom: 30px; }
        .section-header h2 { font-size: 2.2em; margin-bottom: 10px; border-left: 5px solid #3498db; padding-left: 20px; }
        .section-header p { font-size: 1.1em; color: #7f8c8d; margin-left: 25px; }
        .stats-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 20px; margin: 30px 0; }
        .stat-card { background: white; padding: 25px; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); border-left: 4px solid #3498db; }
        .stat-card h3 { font-size: 0.9em; color: #7f8c8d; text-transform: uppercase; margin-bottom: 10px; font-weight: 600; }
        .stat-card .value { font-size: 2em; font-weight: 700; }
        .stat-card .change { font-size: 0.9em; color: #e74c3c; margin-top: 5px; }
        .plot-container { margin: 30px 0; background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
        .key-findings { background: #e8f4f8; padding: 30px; border-radius: 8px; border-left: 5px solid #3498db; margin: 30px 0; }
        .key-findings h3 { margin-bottom: 15px; font-size: 1.4em; }
        .key-findings ul { list-style: none; padding-left: 0; }
        .key-findings li { padding: 10px 0 10px 30px; position: relative; }
        .key-findings li:before { content: "▶"; position: absolute; left: 0; color: #3498db; }
        .warning-box { background: #fff3cd; border-left: 5px solid #f39c12; padding: 20px; margin: 20px 0; border-radius: 4px; }
        .warning-box strong { color: #f39c12; font-size: 1.1em; }
        footer { background: #2c3e50; color: white; padding: 40px; text-align: center; }
        footer a { color: #3498db; text-decoration: none; }
        footer a:hover { text-decoration: underline; }
        @media (max-width: 768px) {
            header h1 { font-size: 2em; }
            section { padding: 40px 20px; }
            .stats-grid { grid-template-columns: 1fr; }
        }
    </style>
</head>
<body>
<div class="container">
    <header>
        <h1>The Keeling Curve</h1>
        <p class="subtitle">Interactive Analysis of Atmospheric CO₂ ({{.Summary.StartYear}}–{{.Summary.EndYear}})</p>
    </header>

    <nav>
        <ul>
            <li><a href="#overview">Overview</a></li>
            <li><a href="#decomposition">Decomposition</a></li>
            <li><a href="#growth">Growth Rate</a></li>
            <li><a href="#decades">By Decade</a></li>
            <li><a href="#seasonal">Seasonal</a></li>
            <li><a href="#historical">Historical</a></li>
        </ul>
    </nav>

    <section id="summary">
        <div class="section-header">
            <h2>Executive Summary</h2>
            <p>Key statistics from {{.Summary.StartYear}} to {{.Summary.EndYear}}</p>
        </div>
        <div class="stats-grid">
            <div class="stat-card">
                <h3>Starting Level</h3>
                <div class="value">{{printf "%.2f" .Summary.CO2Start}} ppm</div>
                <div class="change">{{.Summary.StartYear}}</div>
            </div>
            <div class="stat-card">
                <h3>Current Level</h3>
                <div class="value">{{printf "%.2f" .Summary.CO2End}} ppm</div>
                <div class="change">{{.Summary.EndYear}}</div>
            </div>
            <div class="stat-card">
                <h3>Total Increase</h3>
                <div class="value">{{printf "%.2f" .Summary.TotalIncrease}} ppm</div>
                <div class="change">+{{printf "%.1f" .Summary.PercentIncrease}}%</div>
            </div>
            <div class="stat-card">
                <h3>Recent Growth Rate</h3>
                <div class="value">{{printf "%.2f" .Summary.RecentGrowth}}</div>
                <div class="change">ppm/year (last 10y)</div>
            </div>
        </div>
        {{- with .FirstDecade}}
        <div class="warning-box">
            <strong>⚠️ Critical Finding:</strong> The growth rate has gone from
            {{printf "%.2f" .GrowthMean.Float64}} ppm/year in the {{.Label}} to {{printf "%.2f" $.Summary.RecentGrowth}} ppm/year today
            {{- if gt $.GrowthMultiple 1.0}} ({{printf "%.1f" $.GrowthMultiple}}× faster){{end}}.
            An accelerating rise means the problem is getting worse faster.
        </div>
        {{- end}}
    </section>

    <section id="overview">
        <div class="section-header">
            <h2>1. Time Series Overview</h2>
            <p>Observed measurements, long-term trend, and deseasonalized data</p>
        </div>
        {{template "figure" index .Figures "overview"}}
        <div class="key-findings">
            <h3>Key Insights</h3>
            <ul>
                <li>Monthly observations oscillate by about {{printf "%.1f" .Summary.SeasonalAmplitude}} ppm each year on top of a strong upward trend</li>
                <li>The trend component shows the underlying, steepening growth in atmospheric CO₂</li>
                <li>The deseasonalized series closely tracks the trend, confirming a robust long-term increase</li>
                <li>The trajectory has not slowed: it continues to steepen</li>
            </ul>
        </div>
    </section>

    <section id="decomposition">
        <div class="section-header">
            <h2>2. Seasonal Decomposition</h2>
            <p>Breaking the time series into trend, seasonal, and residual components</p>
        </div>
        {{template "figure" index .Figures "decomposition"}}
        <div class="key-findings">
            <h3>Understanding the Components</h3>
            <ul>
                <li><strong>Observed:</strong> Raw monthly CO₂ measurements from Mauna Loa Observatory</li>
                <li><strong>Trend:</strong> Smooth long-term increase, capturing the fundamental growth pattern</li>
                <li><strong>Seasonal:</strong> Regular annual cycle (~{{printf "%.1f" .Summary.SeasonalAmplitude}} ppm peak to trough) driven by Northern Hemisphere vegetation</li>
                <li><strong>Residual:</strong> What remains after removing trend and seasonality (variance {{printf "%.3f" .Summary.ResidualVariance}} ppm²)</li>
            </ul>
        </div>
    </section>

    <section id="growth">
        <div class="section-header">
            <h2>3. Growth Rate &amp; Acceleration</h2>
            <p>First and second derivatives reveal worsening trends</p>
        </div>
        {{template "figure" index .Figures "growth"}}
        <div class="key-findings">
            <h3>The Problem Is Accelerating</h3>
            <ul>
                <li><strong>Growth rate</strong> (first derivative) averaged {{printf "%.2f" .Summary.RecentGrowth}} ppm/year over the last ten years</li>
                <li><strong>Acceleration</strong> (second derivative) averaged {{printf "%+.3f" .Summary.RecentAcceleration}} ppm/year² over the same span</li>
                <li>Positive acceleration means CO₂ is not just being added, it is being added faster each year</li>
                <li>Short-term variations (El Niño events, economic recessions) barely dent the overall upward march</li>
            </ul>
        </div>
    </section>

    <section id="decades">
        <div class="section-header">
            <h2>4. Growth Rate by Decade</h2>
            <p>Comparison across time periods</p>
        </div>
        {{template "figure" index .Figures "decades"}}
        <div class="key-findings">
            <h3>Decade-by-Decade Breakdown</h3>
            <ul>
                {{- range .Decades}}
                <li>{{.Label}}: {{.Growth}} ppm/year</li>
                {{- else}}
                <li>Not enough annual data for a decade comparison</li>
                {{- end}}
            </ul>
        </div>
    </section>

    <section id="seasonal">
        <div class="section-header">
            <h2>5. Seasonal Cycle Analysis</h2>
            <p>Annual oscillation driven by terrestrial biosphere</p>
        </div>
        {{template "figure" index .Figures "seasonal"}}
        <div class="key-findings">
            <h3>The Breathing Planet</h3>
            <ul>
                <li><strong>Peak (May):</strong> CO₂ reaches its maximum as Northern Hemisphere plants begin growing</li>
                <li><strong>Trough (September):</strong> CO₂ reaches its minimum after summer photosynthesis absorbs carbon</li>
                <li><strong>Amplitude:</strong> ~{{printf "%.1f" .Summary.SeasonalAmplitude}} ppm annual cycle, the Earth's "breathing"</li>
                <li><strong>Decade shift:</strong> The whole seasonal cycle moves upward with every decade</li>
            </ul>
        </div>
    </section>

    <section id="historical">
        <div class="section-header">
            <h2>6. Historical Context</h2>
            <p>Ice core records provide long-term perspective</p>
        </div>
        {{template "figure" index .Figures "historical"}}
        <div class="key-findings">
            <h3>Unprecedented Change</h3>
            <ul>
                <li><strong>Pre-industrial (~280 ppm):</strong> Stable for ~10,000 years of human civilization</li>
                <li><strong>Industrial Revolution (~1850):</strong> Rapid increase begins</li>
                <li><strong>Current (~{{printf "%.0f" .Summary.CO2End}} ppm):</strong> {{printf "%.0f" .AbovePreIndustrial}}% above the pre-industrial baseline</li>
                <li><strong>Rate of change:</strong> The current increase is far faster than natural glacial-interglacial transitions</li>
            </ul>
        </div>
    </section>

    <footer>
        <p><strong>Data Source:</strong> Scripps CO₂ Program, Mauna Loa Observatory</p>
        <p><a href="https://scrippsco2.ucsd.edu" target="_blank">https://scrippsco2.ucsd.edu</a></p>
        <p style="margin-top: 20px; opacity: 0.8;">Interactive dashboard generated {{.Generated}}</p>
    </footer>
</div>
</body>
</html>
{{define "figure"}}
        <div class="plot-container">
        {{- if .}}
            <div id="{{.ID}}"></div>
            <script>
                (function () {
                    var fig = {{.JSON}};
                    Plotly.newPlot({{.ID}}, fig.data, fig.layout, {displayModeBar: true, displaylogo: false, responsive: true});
                })();
            </script>
        {{- else}}
            <p>Figure not available</p>
        {{- end}}
        </div>
{{- end}}`
