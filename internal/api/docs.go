package api

// docsHTML renders /openapi.json with Stoplight Elements under a small
// navigation bar.
const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="referrer" content="same-origin" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Share Explorer API</title>
  <link href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" rel="stylesheet" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
  <style>
    body { margin: 0; height: 100vh; display: flex; flex-direction: column; background: #0d1117; }
    nav { display: flex; gap: 8px; align-items: center; padding: 8px 16px; border-bottom: 1px solid #30363d;
          font: 500 12px -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; }
    nav .brand { margin-right: auto; font-size: 14px; font-weight: 700;
                 background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); -webkit-background-clip: text;
                 background-clip: text; -webkit-text-fill-color: transparent; }
    nav a.link { color: #a5b4fc; text-decoration: none; padding: 4px 10px; border: 1px solid #30363d; border-radius: 6px; }
    nav a.link:hover { border-color: #667eea; }
    elements-api { flex: 1; min-height: 0; }
  </style>
</head>
<body>
  <nav>
    <span class="brand">📊 Share Explorer API</span>
    <a class="link" href="/docs/events">Live Updates Docs →</a>
    <a class="link" href="/openapi.json">openapi.json</a>
  </nav>
  <elements-api
    apiDescriptionUrl="/openapi.json"
    router="hash"
    layout="sidebar"
    tryItCredentialsPolicy="same-origin"
    darkMode
  />
</body>
</html>`
