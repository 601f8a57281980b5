package render

// pageTemplate is the reader page for one loaded topic.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{title .View}}</title>
  <link rel="stylesheet" href="/static/reader.css">
</head>
{{- $v := .View}}{{$sid := $v.SessionID}}
<body data-session="{{$sid}}" data-focus="{{$v.Focus}}" data-provider="{{.Provider}}" data-ai="{{$v.AIEnabled}}">
  <header class="top-bar">
    <h1 id="topicTitle">{{title $v}}</h1>
    <div class="file-info">{{$v.FileName}} &middot; {{$v.TotalPosts}} posts</div>
    <div class="toolbar">
      <form method="post" action="/sessions/{{$sid}}/load" enctype="multipart/form-data" class="inline">
        <input type="file" name="topic" accept=".json,application/json" required>
        <button type="submit">Load another file</button>
      </form>
      <a class="button" href="/sessions/{{$sid}}/export">Export edited JSON</a>
      <form method="post" action="/sessions/{{$sid}}/commands" class="inline">
        <input type="hidden" name="action" value="jump">
        <input type="number" name="value" min="1" max="{{$v.TotalPosts}}" placeholder="Post #" required>
        <button type="submit">Jump</button>
      </form>
      <div class="view-controls">
        <button type="button" data-font="-1" title="Smaller text">A-</button>
        <button type="button" data-font="1" title="Larger text">A+</button>
        <button type="button" id="ruler-toggle" title="Reading ruler">Ruler</button>
      </div>
    </div>
    <div class="credential" id="credential">
      {{if .HasCredential}}
      <span class="ok">{{.Provider}} key saved</span>
      <button type="button" id="credential-change">Change key</button>
      {{else}}
      <span class="warn">No {{.Provider}} API key</span>
      {{end}}
      <input type="password" id="credential-input" placeholder="API key"{{if .HasCredential}} class="hidden"{{end}}>
      <button type="button" id="credential-save"{{if .HasCredential}} class="hidden"{{end}}>Save key</button>
      {{if .AIMessage}}<span class="ai-status">{{.AIMessage}}</span>{{end}}
    </div>
  </header>

  {{range $v.Notices}}<div class="notice">{{.}}</div>{{end}}

  <section class="filters">
    {{if not $v.Filter.IsZero}}
    <span class="active-filter">Showing {{$v.FilteredPosts}} of {{$v.TotalPosts}} posts ({{$v.Filter.Label}})</span>
    <form method="post" action="/sessions/{{$sid}}/commands" class="inline">
      <input type="hidden" name="action" value="clear">
      <button type="submit">Clear filter</button>
    </form>
    {{end}}
    {{if $v.Tags}}
    <div class="tag-cloud">
      {{range $v.Tags}}
      <form method="post" action="/sessions/{{$sid}}/commands" class="inline">
        <input type="hidden" name="action" value="tag">
        <input type="hidden" name="value" value="{{.}}">
        <button type="submit" class="tag{{if eq . $v.Filter.Tag}} active{{end}}">{{.}}</button>
      </form>
      {{end}}
    </div>
    {{end}}
  </section>

  {{template "pager" .}}

  <main id="postsContainer">
  {{if $v.Empty}}
    <p class="empty">No posts match the current filter.</p>
  {{end}}
  {{range $v.Posts}}{{$p := .Post}}
    <article class="post{{if $p.Highlighted}} highlighted{{end}}{{if $p.AISummarize}} ai-summarize-marked{{end}}" id="post-{{.Index}}" data-post-id="{{$p.ID}}" data-post-index="{{.Index}}">
      <div class="post-header">
        <div class="post-author">
          <form method="post" action="/sessions/{{$sid}}/commands" class="inline">
            <input type="hidden" name="action" value="author">
            <input type="hidden" name="value" value="{{$p.Author}}">
            <button type="submit" class="author-link">{{$p.Author}}</button>
          </form>
          {{if $p.Title}}<span class="post-title">{{$p.Title}}</span>{{end}}
        </div>
        <div class="post-meta">
          <span class="post-index">#{{.Index}}</span>
          {{if $p.URL}}<a href="{{$p.URL}}" target="_blank" rel="noopener" class="post-id">(ID: {{$p.ID}})</a>{{else}}<span class="post-id">(ID: {{$p.ID}})</span>{{end}}
          <span class="post-time">{{displayTime $p}}</span>
        </div>
      </div>

      <form method="post" action="/sessions/{{$sid}}/commands" class="summary-form">
        <input type="hidden" name="action" value="summary">
        <input type="hidden" name="post_id" value="{{$p.ID}}">
        <textarea name="value" class="post-summary-editor" placeholder="Write a summary or use the AI button...">{{$p.Summary}}</textarea>
        <button type="submit" class="save-summary">Save summary</button>
      </form>

      <div class="post-tags">
        {{range $p.Tags}}<span class="tag">{{.}}</span>{{end}}
        <form method="post" action="/sessions/{{$sid}}/commands" class="inline add-tag">
          <input type="hidden" name="action" value="add_tag">
          <input type="hidden" name="post_id" value="{{$p.ID}}">
          <input type="text" name="value" placeholder="Add tag" required>
          <button type="submit">+</button>
        </form>
      </div>

      <div class="post-controls">
        <form method="post" action="/sessions/{{$sid}}/commands" class="inline">
          <input type="hidden" name="action" value="highlight">
          <input type="hidden" name="post_id" value="{{$p.ID}}">
          <button type="submit" class="highlight-btn">{{if $p.Highlighted}}Remove highlight{{else}}Highlight{{end}}</button>
        </form>
        <form method="post" action="/sessions/{{$sid}}/commands" class="inline">
          <input type="hidden" name="action" value="ai_mark">
          <input type="hidden" name="post_id" value="{{$p.ID}}">
          <button type="submit" class="ai-mark-btn">{{if $p.AISummarize}}Unmark AI summary{{else}}Mark for AI summary{{end}}</button>
        </form>
        <button type="button" class="ai-summarize-btn" data-post-id="{{$p.ID}}"{{if or (not $v.AIEnabled) .Summarizing}} disabled{{end}}>{{if .Summarizing}}Summarizing...{{else}}AI summary{{end}}</button>
      </div>

      <details class="post-body">
        <summary>Read full post</summary>
        <div class="post-content">{{postHTML $p.HTML}}</div>
      </details>

      <details class="ai-chat"{{if $p.ChatHistory}} open{{end}}>
        <summary>Ask AI about this post</summary>
        <div class="chat-history">
          {{range $p.ChatHistory}}<div class="chat-turn {{if isModel .}}model{{else}}user{{end}}">{{turnHTML .}}</div>{{end}}
        </div>
        <form class="chat-form" data-post-id="{{$p.ID}}">
          <input type="text" name="message" placeholder="Ask a question..." required{{if not $v.AIEnabled}} disabled{{end}}>
          <button type="submit"{{if or (not $v.AIEnabled) .Chatting}} disabled{{end}}>Send</button>
        </form>
      </details>
    </article>
  {{end}}
  </main>

  {{template "pager" .}}

  <div id="reading-ruler" class="hidden"></div>
  <script src="/static/reader.js"></script>
</body>
</html>
{{define "pager"}}{{$v := .View}}{{$sid := $v.SessionID}}
  <nav class="pagination">
    <form method="post" action="/sessions/{{$sid}}/commands" class="inline">
      <button type="submit" name="action" value="first"{{if le $v.Page 1}} disabled{{end}}>&laquo; First</button>
      <button type="submit" name="action" value="prev"{{if le $v.Page 1}} disabled{{end}}>&lsaquo; Prev</button>
    </form>
    <form method="post" action="/sessions/{{$sid}}/commands" class="inline page-select">
      <input type="hidden" name="action" value="page">
      <select name="value" onchange="this.form.submit()">
        {{range .Pages}}<option value="{{.}}"{{if eq . $v.Page}} selected{{end}}>Page {{.}}</option>{{end}}
      </select>
      <span class="page-info">of {{$v.TotalPages}} ({{.PageSize}} per page)</span>
    </form>
    <form method="post" action="/sessions/{{$sid}}/commands" class="inline">
      <button type="submit" name="action" value="next"{{if ge $v.Page $v.TotalPages}} disabled{{end}}>Next &rsaquo;</button>
      <button type="submit" name="action" value="last"{{if ge $v.Page $v.TotalPages}} disabled{{end}}>Last &raquo;</button>
    </form>
  </nav>
{{end}}`

// landingTemplate asks for a topic file. It is shown before anything is
// loaded and again when an upload fails to parse.
const landingTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Topic reader</title>
  <link rel="stylesheet" href="/static/reader.css">
</head>
<body>
  <main class="landing">
    <h1>Topic reader</h1>
    <p>Open an exported forum topic (.json) to read, tag and summarize its posts.</p>
    {{if .Error}}<div class="notice error">Could not load the file: {{.Error}}</div>{{end}}
    <form method="post" action="{{if .SessionID}}/sessions/{{.SessionID}}/load{{else}}/sessions{{end}}" enctype="multipart/form-data">
      <input type="file" name="topic" accept=".json,application/json" required>
      <button type="submit">Open</button>
    </form>
  </main>
</body>
</html>`
