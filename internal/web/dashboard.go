package web

const dashboardHTML = `<!doctype html>
<html lang="{{.Lang}}">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{.Msgs.Title}}</title>
  <style>
    body { margin: 0; min-height: 100vh; background: linear-gradient(135deg, #f5f7fa 0%, #c3cfe2 100%); font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; color: #333; }
    .wrapper { max-width: 1400px; margin: 0 auto; padding: 24px 20px; }
    .header { margin-bottom: 24px; }
    h1 { margin: 0 0 8px; font-size: 32px; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); -webkit-background-clip: text; background-clip: text; -webkit-text-fill-color: transparent; }
    .subtitle { margin: 0; color: #666; }
    .badge { display: inline-block; margin-top: 12px; padding: 4px 12px; border-radius: 20px; font-size: 12px; background: rgba(102, 126, 234, 0.1); color: #667eea; }
    .card { background: white; border-radius: 12px; padding: 20px; margin-bottom: 20px; box-shadow: 0 4px 12px rgba(0, 0, 0, 0.08); }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; align-items: end; }
    label { display: block; font-size: 13px; font-weight: 600; margin-bottom: 6px; color: #555; }
    select, input { width: 100%; box-sizing: border-box; padding: 9px 10px; border: 2px solid #e8e8e8; border-radius: 8px; font-size: 14px; background: #fff; }
    select:focus, input:focus { outline: none; border-color: #667eea; }
    select:disabled { opacity: 0.5; }
    button { width: 100%; padding: 11px; border: 0; border-radius: 8px; color: white; font-weight: 600; cursor: pointer; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); }
    button:disabled { opacity: 0.6; cursor: wait; }
    .error { display: none; margin-top: 14px; padding: 10px 14px; border-radius: 8px; background: #fee; color: #c33; }
    .chart-title { margin: 0 0 4px; font-size: 18px; }
    .chart-subtitle { margin: 0 0 12px; color: #888; font-size: 13px; }
    .placeholder { text-align: center; padding-top: 100px; font-size: 18px; color: #666; }
  </style>
</head>
<body>
  <div class="wrapper">
{{if .Loading}}
    <div class="placeholder" id="loading">{{.Msgs.Loading}}</div>
{{else}}
    <div class="header">
      <h1>{{.Msgs.Title}}</h1>
      <p class="subtitle">{{.Msgs.Subtitle}}</p>
      <div class="badge" id="token-badge">{{.TokenBadge}}</div>
    </div>

    <div class="card">
      <div class="grid">
        <div><label for="dataset">{{.Msgs.DatasetLabel}}</label><select id="dataset"></select></div>
        <div><label for="dimension">{{.Msgs.DimensionLabel}}</label><select id="dimension" disabled></select></div>
        <div><label for="measure">{{.Msgs.MeasureLabel}}</label><select id="measure" disabled></select></div>
        <div><label for="chart-type">{{.Msgs.ChartTypeLabel}}</label>
          <select id="chart-type">{{range .ChartTypes}}<option value="{{.Value}}">{{.Label}}</option>{{end}}</select></div>
        <div><label for="date-from">{{.Msgs.DateFromLabel}}</label><input type="date" id="date-from" /></div>
        <div><label for="date-to">{{.Msgs.DateToLabel}}</label><input type="date" id="date-to" /></div>
        <div><label for="platform">{{.Msgs.PlatformLabel}}</label><input type="text" id="platform" placeholder="{{.Msgs.PlatformHint}}" /></div>
        <div><button id="run">{{.Msgs.Run}}</button></div>
      </div>
      <div class="error" id="run-error"></div>
    </div>

    <div class="card">
      <h2 class="chart-title" id="chart-title"></h2>
      <p class="chart-subtitle" id="chart-subtitle"></p>
      <div id="chart" style="width: 100%; height: {{.ChartHeight}}px;"></div>
    </div>
{{end}}
  </div>
{{if not .Loading}}
  <script src="https://cdn.jsdelivr.net/npm/echarts@5/dist/echarts.min.js"></script>
  <script>
  (function () {
    var sessionID = {{.SessionID}};
    var text = {{.Script}};
    var api = "/api/v1/sessions/" + sessionID;
    var titles = {};
    document.querySelectorAll("#chart-type option").forEach(function (o) { titles[o.value] = o.textContent; });

    var el = function (id) { return document.getElementById(id); };
    var chart = echarts.init(el("chart"));

    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var sock = new WebSocket(proto + location.host + "/ws/sessions/" + sessionID + "/chart");
    sock.onmessage = function (e) {
      var m = JSON.parse(e.data);
      if (m.type === "option") { chart.setOption(m.option || {}, true); }
      else if (m.type === "resize") { chart.resize(); }
      else if (m.type === "dispose") { chart.clear(); }
    };
    window.addEventListener("resize", function () {
      if (sock.readyState === 1) { sock.send(JSON.stringify({ type: "resize" })); }
    });

    function fill(select, values, selected, label) {
      select.innerHTML = "";
      (values || []).forEach(function (v) {
        var o = document.createElement("option");
        o.value = label ? v.id : v;
        o.textContent = label ? (v.label || v.id) : v;
        select.appendChild(o);
      });
      select.value = selected || "";
    }

    var lastVersion = -1;
    function render(v) {
      if (v.version < lastVersion) { return; }
      lastVersion = v.version;
      var s = v.state;
      fill(el("dataset"), v.datasets, s.dataset_id, true);
      fill(el("dimension"), v.fields ? v.fields.dimensions : [], s.dimension);
      fill(el("measure"), v.fields ? v.fields.measures : [], s.measure);
      el("dimension").disabled = !v.fields;
      el("measure").disabled = !v.fields;
      el("chart-type").value = s.chart_type;
      el("date-from").value = s.date_from;
      el("date-to").value = s.date_to;
      if (document.activeElement !== el("platform")) { el("platform").value = s.platform || ""; }
      el("run").disabled = v.loading;
      el("run").textContent = v.loading ? text.running : text.run;
      var err = v.run_error || v.page_error;
      el("run-error").textContent = err || "";
      el("run-error").style.display = err ? "block" : "none";
      el("chart-title").textContent = titles[s.chart_type] || "";
      el("chart-subtitle").textContent = s.dimension + " × " + s.measure + " • " + (v.rows || []).length + " " + text.rows_suffix;
    }

    function send(method, path, body) {
      return fetch(api + path, {
        method: method,
        headers: { "Content-Type": "application/json" },
        body: body ? JSON.stringify(body) : undefined
      }).then(function (r) {
        return r.json().then(function (j) {
          if (!r.ok) { throw new Error(j.detail || r.statusText); }
          return j;
        });
      }).then(function (sv) { if (sv.view) { render(sv.view); } })
        .catch(function (e) {
          el("run-error").textContent = e.message;
          el("run-error").style.display = "block";
        });
    }

    el("dataset").onchange = function (e) { send("PUT", "/dataset", { dataset_id: e.target.value }); };
    el("dimension").onchange = function (e) { send("PUT", "/dimension", { dimension: e.target.value }); };
    el("measure").onchange = function (e) { send("PUT", "/measure", { measure: e.target.value }); };
    el("chart-type").onchange = function (e) { send("PUT", "/chart-type", { chart_type: e.target.value }); };
    var dates = function () { send("PUT", "/dates", { date_from: el("date-from").value, date_to: el("date-to").value }); };
    el("date-from").onchange = dates;
    el("date-to").onchange = dates;
    el("platform").onchange = function (e) { send("PUT", "/platform", { platform: e.target.value }); };
    el("run").onclick = function () { send("POST", "/run"); };

    var events = new EventSource(api + "/events?feeds=view");
    events.addEventListener("view", function (e) { render(JSON.parse(e.data)); });
    fetch(api).then(function (r) { return r.json(); }).then(function (sv) { render(sv.view); });

    window.addEventListener("pagehide", function () {
      events.close();
      sock.close();
      fetch(api, { method: "DELETE", keepalive: true });
    });
  })();
  </script>
{{end}}
</body>
</html>`
