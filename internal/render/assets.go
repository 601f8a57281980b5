package render

// StyleCSS is served as /static/reader.css.
const StyleCSS = `:root {
  --bg: #ffffff;
  --fg: #1f2328;
  --muted: #656d76;
  --border: #d0d7de;
  --accent: #0969da;
  --highlight: #fff8c5;
  --ai: #ddf4ff;
  --notice: #fff1e5;
  --font-size: 16px;
}
* { box-sizing: border-box; }
body { margin: 0; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; font-size: var(--font-size); color: var(--fg); background: var(--bg); }
.hidden { display: none !important; }
.inline { display: inline-flex; gap: 4px; align-items: center; margin: 0; }
button, .button { font: inherit; font-size: 0.85em; padding: 4px 10px; border: 1px solid var(--border); border-radius: 6px; background: #f6f8fa; color: var(--fg); cursor: pointer; text-decoration: none; }
button:disabled { opacity: 0.5; cursor: default; }
.top-bar { position: sticky; top: 0; z-index: 10; background: var(--bg); border-bottom: 1px solid var(--border); padding: 12px 24px; }
.top-bar h1 { margin: 0 0 4px; font-size: 1.4em; }
.file-info { color: var(--muted); font-size: 0.85em; margin-bottom: 8px; }
.toolbar, .credential { display: flex; flex-wrap: wrap; gap: 12px; align-items: center; margin-top: 6px; }
.credential .ok { color: #1a7f37; }
.credential .warn { color: #bc4c00; }
.notice { margin: 12px 24px; padding: 8px 12px; background: var(--notice); border: 1px solid #ffd8b5; border-radius: 6px; }
.notice.error { background: #ffebe9; border-color: #ffcecb; }
.filters { padding: 8px 24px; display: flex; flex-wrap: wrap; gap: 8px; align-items: center; }
.tag-cloud { display: flex; flex-wrap: wrap; gap: 4px; }
.tag { display: inline-block; padding: 2px 8px; border-radius: 12px; background: #eaeef2; font-size: 0.8em; }
.tag.active { background: var(--accent); color: #fff; }
.pagination { display: flex; gap: 12px; justify-content: center; align-items: center; padding: 12px; }
.page-info { color: var(--muted); font-size: 0.85em; }
main#postsContainer { max-width: 960px; margin: 0 auto; padding: 0 24px; }
.empty { text-align: center; color: var(--muted); padding: 48px 0; }
.post { border: 1px solid var(--border); border-radius: 8px; padding: 12px 16px; margin: 16px 0; }
.post.highlighted { background: var(--highlight); }
.post.ai-summarize-marked { border-left: 4px solid var(--accent); }
.post.jump-target { outline: 3px solid var(--accent); }
.post-header { display: flex; justify-content: space-between; flex-wrap: wrap; gap: 8px; }
.author-link { border: none; background: none; padding: 0; font-weight: 600; color: var(--accent); font-size: 1em; }
.post-title { margin-left: 8px; color: var(--muted); }
.post-meta { color: var(--muted); font-size: 0.85em; display: flex; gap: 8px; }
.post-index { font-weight: 600; }
.summary-form { display: flex; gap: 8px; margin: 8px 0; align-items: flex-start; }
.post-summary-editor { flex: 1; min-height: 2.5em; font: inherit; padding: 6px; border: 1px solid var(--border); border-radius: 6px; resize: vertical; background: var(--ai); }
.live .save-summary { display: none; }
.post-tags { display: flex; flex-wrap: wrap; gap: 4px; align-items: center; margin: 6px 0; }
.add-tag input { width: 8em; font-size: 0.8em; }
.post-controls { display: flex; flex-wrap: wrap; gap: 8px; margin: 6px 0; }
.post-body summary, .ai-chat summary { cursor: pointer; color: var(--accent); font-size: 0.9em; }
.post-content { margin-top: 8px; line-height: 1.6; overflow-wrap: anywhere; }
.post-content img { max-width: 100%; }
.youtube-placeholder { width: 100%; max-width: 560px; aspect-ratio: 16 / 9; background: #000 center / cover no-repeat; cursor: pointer; border-radius: 6px; }
.youtube-placeholder iframe { width: 100%; height: 100%; border: 0; }
.chat-history { display: flex; flex-direction: column; gap: 6px; margin: 8px 0; }
.chat-turn { padding: 6px 10px; border-radius: 6px; }
.chat-turn.user { align-self: flex-end; background: #eaeef2; }
.chat-turn.model { background: var(--ai); }
.chat-form { display: flex; gap: 6px; }
.chat-form input { flex: 1; }
#reading-ruler { position: fixed; left: 0; right: 0; height: 2em; background: rgba(9, 105, 218, 0.08); pointer-events: none; z-index: 5; }
.landing { max-width: 560px; margin: 80px auto; padding: 0 24px; }
`

// Script is served as /static/reader.js.
const Script = `(function () {
  'use strict';
  const body = document.body;
  const sid = body.dataset.session;
  if (!sid) return;
  const provider = body.dataset.provider;

  // Jump target
  const focus = parseInt(body.dataset.focus || '0', 10);
  if (focus > 0) {
    const el = document.getElementById('post-' + focus);
    if (el) {
      el.classList.add('jump-target');
      el.scrollIntoView({ block: 'start' });
      setTimeout(() => el.classList.remove('jump-target'), 2000);
    }
  }

  // Font size
  const sizes = [13, 16, 18, 20, 24, 28];
  let sizeIndex = parseInt(localStorage.getItem('reader.fontSize') || '1', 10);
  function applySize() {
    sizeIndex = Math.max(0, Math.min(sizes.length - 1, sizeIndex));
    document.documentElement.style.setProperty('--font-size', sizes[sizeIndex] + 'px');
    localStorage.setItem('reader.fontSize', String(sizeIndex));
  }
  applySize();
  document.querySelectorAll('[data-font]').forEach(btn => {
    btn.addEventListener('click', () => { sizeIndex += parseInt(btn.dataset.font, 10); applySize(); });
  });

  // Reading ruler
  const ruler = document.getElementById('reading-ruler');
  document.getElementById('ruler-toggle').addEventListener('click', () => ruler.classList.toggle('hidden'));
  document.addEventListener('mousemove', e => {
    if (!ruler.classList.contains('hidden')) ruler.style.top = (e.clientY - ruler.offsetHeight / 2) + 'px';
  });

  // YouTube placeholders expand on click
  document.querySelectorAll('.youtube-placeholder[data-videoid]').forEach(ph => {
    const id = ph.dataset.videoid;
    ph.style.backgroundImage = 'url(https://i.ytimg.com/vi/' + id + '/hqdefault.jpg)';
    ph.addEventListener('click', () => {
      const frame = document.createElement('iframe');
      frame.src = 'https://www.youtube.com/embed/' + id + '?autoplay=1';
      frame.allow = 'autoplay; encrypted-media';
      frame.allowFullscreen = true;
      ph.replaceChildren(frame);
    }, { once: true });
  });

  async function api(method, url, payload) {
    const res = await fetch(url, {
      method: method,
      headers: { 'Content-Type': 'application/json' },
      body: payload === undefined ? undefined : JSON.stringify(payload),
    });
    const data = await res.json().catch(() => ({}));
    if (!res.ok) throw new Error(data.error || ('HTTP ' + res.status));
    return data;
  }

  // Credentials
  const keyInput = document.getElementById('credential-input');
  const keySave = document.getElementById('credential-save');
  const keyChange = document.getElementById('credential-change');
  if (keyChange) {
    keyChange.addEventListener('click', () => {
      keyInput.classList.remove('hidden');
      keySave.classList.remove('hidden');
      keyInput.focus();
    });
  }
  keySave.addEventListener('click', async () => {
    const value = keyInput.value.trim();
    if (!value) { alert('The API key cannot be empty.'); return; }
    try {
      await api('PUT', '/api/credentials/' + encodeURIComponent(provider), { value: value });
      location.reload();
    } catch (err) {
      alert('Saving the key failed: ' + err.message);
    }
  });

  // AI summary
  document.querySelectorAll('.ai-summarize-btn').forEach(btn => {
    btn.addEventListener('click', async () => {
      const post = btn.closest('.post');
      const label = btn.textContent;
      btn.disabled = true;
      btn.textContent = 'Summarizing...';
      try {
        const data = await api('POST', '/api/sessions/' + sid + '/posts/' + btn.dataset.postId + '/summarize');
        const editor = post.querySelector('.post-summary-editor');
        editor.value = data.summary;
        autosize(editor);
        post.classList.add('ai-summarize-marked');
      } catch (err) {
        alert('Summarizing failed:\n' + err.message);
      } finally {
        btn.textContent = label;
        btn.disabled = false;
      }
    });
  });

  // AI chat
  document.querySelectorAll('.chat-form').forEach(form => {
    form.addEventListener('submit', async e => {
      e.preventDefault();
      const input = form.elements.message;
      const send = form.querySelector('button');
      const message = input.value.trim();
      if (!message) return;
      const history = form.parentElement.querySelector('.chat-history');
      send.disabled = true;
      try {
        const data = await api('POST', '/api/sessions/' + sid + '/posts/' + form.dataset.postId + '/chat', { message: message });
        const user = document.createElement('div');
        user.className = 'chat-turn user';
        user.textContent = message;
        const model = document.createElement('div');
        model.className = 'chat-turn model';
        model.innerHTML = data.reply_html;
        history.append(user, model);
        input.value = '';
      } catch (err) {
        alert('Chat failed:\n' + err.message);
      } finally {
        send.disabled = false;
      }
    });
  });

  // Summary editors save over the websocket while it is open and through
  // the JSON commands endpoint otherwise. Pending edits are flushed before
  // the page goes away.
  function autosize(el) {
    el.style.height = 'auto';
    el.style.height = el.scrollHeight + 'px';
  }
  let socket = null;
  const pending = new Map();
  const commandsURL = '/api/sessions/' + sid + '/commands';
  function connect() {
    const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    socket = new WebSocket(proto + location.host + '/ws/sessions/' + sid);
    socket.onopen = () => body.classList.add('live');
    socket.onclose = () => { body.classList.remove('live'); socket = null; };
    socket.onmessage = e => {
      const msg = JSON.parse(e.data);
      if (msg.type === 'error') console.warn('summary not saved:', msg.error);
    };
  }
  function saveSummary(postID, value, leaving) {
    if (socket && socket.readyState === WebSocket.OPEN) {
      socket.send(JSON.stringify({ type: 'summary', post_id: postID, value: value }));
      return;
    }
    const payload = JSON.stringify({ action: 'summary', value: value, post_id: postID });
    if (leaving && navigator.sendBeacon &&
        navigator.sendBeacon(commandsURL, new Blob([payload], { type: 'application/json' }))) {
      return;
    }
    fetch(commandsURL, {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: payload,
      keepalive: true
    }).catch(err => console.warn('summary not saved:', err));
  }
  function flushPending(leaving) {
    pending.forEach((entry, postID) => {
      clearTimeout(entry.timer);
      saveSummary(postID, entry.editor.value, leaving);
    });
    pending.clear();
  }
  connect();
  document.querySelectorAll('.post-summary-editor').forEach(editor => {
    autosize(editor);
    editor.addEventListener('input', () => {
      autosize(editor);
      const postID = parseInt(editor.closest('.post').dataset.postId, 10);
      const entry = pending.get(postID);
      if (entry) clearTimeout(entry.timer);
      pending.set(postID, {
        editor: editor,
        timer: setTimeout(() => {
          pending.delete(postID);
          saveSummary(postID, editor.value, false);
        }, 400)
      });
    });
  });
  document.addEventListener('submit', () => flushPending(false), true);
  document.addEventListener('click', e => {
    if (e.target.closest('a[href]')) flushPending(false);
  }, true);
  window.addEventListener('pagehide', () => flushPending(true));
  window.addEventListener('beforeunload', () => flushPending(true));
})();
`
