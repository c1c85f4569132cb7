package transcript

// pageTemplate is the Go html/template wrapping a rendered transcript.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <style>
    :root {
      --bg: #ffffff;
      --text: #212529;
      --text-muted: #868e96;
      --border: #dee2e6;
      --accent: #228be6;
      --quote-bg: #f8f9fa;
      --code-bg: #f1f3f5;
    }
    body {
      margin: 0 auto;
      max-width: 760px;
      padding: 2rem 1.5rem 4rem;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
      line-height: 1.6;
      color: var(--text);
      background: var(--bg);
    }
    .transcript-meta {
      color: var(--text-muted);
      font-size: 0.875rem;
      border-bottom: 1px solid var(--border);
      padding-bottom: 1rem;
    }
    .turn-time {
      color: var(--text-muted);
      font-size: 0.875rem;
      font-style: italic;
    }
    h1 { font-size: 1.75rem; }
    h2 {
      font-size: 1.2rem;
      margin-top: 2.5rem;
      padding-top: 1.5rem;
      border-top: 1px solid var(--border);
    }
    blockquote {
      margin: 0;
      padding: 0.5rem 1rem;
      background: var(--quote-bg);
      border-left: 3px solid var(--accent);
      border-radius: 0 4px 4px 0;
      white-space: pre-wrap;
    }
    pre {
      padding: 0.75rem 1rem;
      overflow-x: auto;
      border-radius: 6px;
      background: var(--code-bg);
      font-size: 0.875rem;
    }
    code { font-size: 0.92em; }
    table { border-collapse: collapse; }
    th, td { border: 1px solid var(--border); padding: 0.35rem 0.7rem; }
  </style>
</head>
<body>
  <article>
    <h1>Conversation transcript</h1>
{{- range .Turns}}
    <section>
      <h2>Turn {{.Number}}</h2>
      <p class="turn-time">{{.Recorded}}</p>
      <p><strong>User</strong></p>
      <blockquote>{{.Query}}</blockquote>
      <p><strong>Assistant</strong></p>
      {{.Response}}
    </section>
{{- end}}
  </article>
  <p class="transcript-meta">Session {{.SessionID}} &middot; {{.TurnCount}} turns &middot; exported {{.Exported}}</p>
</body>
</html>`
