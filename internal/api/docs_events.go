package api

const eventsDocsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Live Updates · Share Explorer</title>
  <style>
    body { margin: 0; background: #0d1117; color: #c9d1d9; font: 14px/1.65 -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; }
    nav { background: #161b22; border-bottom: 1px solid #30363d; padding: 12px 24px; }
    nav a { color: #58a6ff; text-decoration: none; margin-right: 16px; }
    main { max-width: 860px; margin: 0 auto; padding: 24px 16px 64px; }
    h1 { color: #e6edf3; font-size: 24px; }
    h2 { color: #e6edf3; font-size: 18px; border-bottom: 1px solid #21262d; padding-bottom: 6px; margin-top: 36px; }
    code, pre { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 12.5px; }
    code { background: #161b22; padding: 1px 5px; border-radius: 4px; }
    pre { background: #161b22; border: 1px solid #30363d; border-radius: 6px; padding: 12px 16px; overflow-x: auto; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #30363d; padding: 6px 10px; text-align: left; vertical-align: top; }
    th { background: #161b22; color: #e6edf3; }
  </style>
</head>
<body>
  <nav><a href="/docs">← REST API</a><span>Live Updates</span></nav>
  <main>
    <h1>Live updates</h1>
    <p>Every change to a session (token, selection, loads, query runs) is pushed to
    subscribers. Two transports carry the same data.</p>

    <h2>Server-Sent Events</h2>
    <pre>GET /api/v1/sessions/{session_id}/events?feeds=view,chart</pre>
    <table>
      <tr><th>Feed</th><th>Payload</th></tr>
      <tr><td><code>view</code></td><td>The session view: <code>state</code>, <code>datasets</code>,
        <code>fields</code>, <code>rows</code>, <code>loading</code>, <code>run_error</code>,
        <code>stale_dimension</code>, <code>stale_measure</code>, <code>version</code>.</td></tr>
      <tr><td><code>chart</code></td><td>The ECharts option for the current rows. <code>{}</code> when there are none.</td></tr>
    </table>
    <p>Omit <code>feeds</code> to receive both. Slow clients drop events; use the
    <code>version</code> field to detect gaps and refetch <code>GET /api/v1/sessions/{session_id}</code>.
    The stream ends when the session is closed.</p>
    <pre>const es = new EventSource("/api/v1/sessions/" + id + "/events?feeds=chart");
es.addEventListener("chart", (e) =&gt; chart.setOption(JSON.parse(e.data), true));</pre>

    <h2>Chart socket</h2>
    <pre>GET /ws/sessions/{session_id}/chart</pre>
    <p>A websocket bound to one chart surface. The server sends JSON text frames:</p>
    <table>
      <tr><th>Type</th><th>Meaning</th></tr>
      <tr><td><code>{"type":"option","option":{...}}</code></td><td>Apply the option (sent on connect and after every change).</td></tr>
      <tr><td><code>{"type":"resize"}</code></td><td>Re-measure the container.</td></tr>
      <tr><td><code>{"type":"dispose"}</code></td><td>The surface is being released.</td></tr>
    </table>
    <p>The client sends <code>{"type":"resize"}</code> when its viewport changes. Closing the
    socket disposes the surface and removes its resize listener.</p>
  </main>
</body>
</html>`
