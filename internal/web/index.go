package web

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>ctvtcntr</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <style>
        body { font-family: system-ui, sans-serif; background: #f5f5f5; color: #333; padding: 20px; }
        .dashboard { display: flex; gap: 20px; flex-wrap: wrap; }
        .box { flex: 1; min-width: 300px; background: white; border-radius: 8px; padding: 24px; }
        .box h2 { border-bottom: 2px solid #3498db; padding-bottom: 10px; }
        .item { display: flex; gap: 12px; padding: 8px; position: relative; }
        .item::before { content: ''; position: absolute; left: 0; top: 0; height: 100%; width: var(--bar-width, 0%); background: #3498db; opacity: 0.15; }
        .name { flex: 1; font-weight: 500; }
        .time { color: #7f8c8d; }
        .pct { min-width: 4em; text-align: right; color: #3498db; }
        .total { margin-top: 16px; font-weight: 600; }
        .loading { color: #7f8c8d; font-style: italic; }
    </style>
</head>
<body>
    <h1>Focus time</h1>
    <div class="dashboard">
        <div class="box">
            <h2>Today</h2>
            <div hx-get="/api/summary?period=day" hx-trigger="load, every 30s"><div class="loading">Loading...</div></div>
        </div>
        <div class="box">
            <h2>This Week</h2>
            <div hx-get="/api/summary?period=week" hx-trigger="load, every 30s"><div class="loading">Loading...</div></div>
        </div>
        <div class="box">
            <h2>This Month</h2>
            <div hx-get="/api/summary?period=month" hx-trigger="load, every 30s"><div class="loading">Loading...</div></div>
        </div>
    </div>
</body>
</html>`
