package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>PDF Q&amp;A</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #0f172a; color: #e2e8f0; min-height: 100vh; display: flex; justify-content: center; padding: 2rem 1rem; }
  .card { max-width: 760px; width: 100%; background: #1e293b; border-radius: 12px; padding: 2.5rem; box-shadow: 0 25px 50px rgba(0,0,0,0.4); height: fit-content; }
  h1 { font-size: 1.75rem; margin-bottom: 0.5rem; color: #f8fafc; }
  .subtitle { color: #94a3b8; margin-bottom: 1.75rem; }
  .section { margin-bottom: 1.5rem; }
  .section-title { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.1em; color: #64748b; margin-bottom: 0.5rem; }
  input[type="file"], input[type="text"] { width: 100%; background: #0f172a; border: 1px solid #334155; border-radius: 8px; padding: 0.6rem 0.75rem; color: #e2e8f0; font-size: 0.9rem; }
  label.check { display: inline-flex; align-items: center; gap: 0.4rem; color: #94a3b8; font-size: 0.85rem; margin-top: 0.5rem; }
  button { background: #38bdf8; color: #0f172a; border: none; border-radius: 8px; padding: 0.6rem 1.1rem; font-size: 0.9rem; font-weight: 600; cursor: pointer; }
  button:hover { background: #7dd3fc; }
  button:disabled { background: #334155; color: #64748b; cursor: default; }
  button.secondary { background: #334155; color: #e2e8f0; }
  button.secondary:hover { background: #475569; }
  .row { display: flex; gap: 0.75rem; margin-top: 0.75rem; flex-wrap: wrap; }
  .row input[type="text"] { flex: 1; min-width: 200px; }
  .status-line { color: #94a3b8; font-size: 0.85rem; margin-top: 0.5rem; min-height: 1.2em; }
  #chat { display: flex; flex-direction: column; gap: 0.75rem; }
  .msg { border-radius: 8px; padding: 0.75rem 1rem; font-size: 0.9rem; line-height: 1.5; }
  .msg.question { background: #0f172a; border: 1px solid #334155; color: #a5b4fc; }
  .msg.answer { background: #0f172a; border: 1px solid #334155; }
  .msg.error { border-color: #7f1d1d; color: #fca5a5; }
  .msg pre { background: #1e293b; border-radius: 6px; padding: 0.75rem; overflow-x: auto; margin: 0.5rem 0; }
  .msg code { font-family: "SF Mono", "Fira Code", Menlo, monospace; font-size: 0.85em; }
  .msg p { margin-bottom: 0.5rem; }
  .msg ul, .msg ol { margin: 0.5rem 0 0.5rem 1.25rem; }
</style>
</head>
<body>
<div class="card">
  <h1>PDF Q&amp;A</h1>
  <p class="subtitle">Upload PDF documents and ask questions about their content.</p>

  <div class="section">
    <div class="section-title">Documents</div>
    <input type="file" id="files" multiple accept=".pdf">
    <label class="check"><input type="checkbox" id="force"> Rebuild index from scratch</label>
    <div class="row">
      <button id="upload-btn">Process Documents</button>
    </div>
    <div class="status-line" id="upload-status"></div>
  </div>

  <div class="section">
    <div class="section-title">Ask</div>
    <div class="row">
      <input type="text" id="question" placeholder="Ask a question about your documents" autocomplete="off">
      <button id="ask-btn">Ask</button>
    </div>
    <div class="row">
      <button class="secondary" id="summarize-btn">Summarize</button>
      <button class="secondary" id="export-btn">Export Chat</button>
      <button class="secondary" id="clear-btn">Clear History</button>
    </div>
    <div class="status-line" id="ask-status"></div>
  </div>

  <div class="section">
    <div class="section-title">Conversation</div>
    <div id="chat"></div>
  </div>
</div>

<script>
const $ = (id) => document.getElementById(id);
const chat = $("chat");

function addMessage(cls, html) {
  const div = document.createElement("div");
  div.className = "msg " + cls;
  div.innerHTML = html;
  chat.appendChild(div);
  div.scrollIntoView({behavior: "smooth", block: "end"});
}

function addText(cls, text) {
  const div = document.createElement("div");
  div.className = "msg " + cls;
  div.textContent = text;
  chat.appendChild(div);
  div.scrollIntoView({behavior: "smooth", block: "end"});
}

$("upload-btn").addEventListener("click", async () => {
  const input = $("files");
  if (!input.files.length) {
    $("upload-status").textContent = "Please upload at least one PDF file.";
    return;
  }
  const form = new FormData();
  for (const f of input.files) form.append("files", f);
  form.append("force", $("force").checked ? "true" : "false");

  $("upload-btn").disabled = true;
  $("upload-status").textContent = "Processing documents...";
  try {
    const resp = await fetch("/upload", {method: "POST", body: form});
    const data = await resp.json();
    if (!resp.ok) {
      $("upload-status").textContent = data.message;
      return;
    }
    $("upload-status").textContent = data.reused
      ? "Reusing existing index (" + data.chunks + " chunks)."
      : "Indexed " + data.chunks + " chunks from " + data.files.length + " file(s).";
  } catch (err) {
    $("upload-status").textContent = "Upload failed: " + err;
  } finally {
    $("upload-btn").disabled = false;
  }
});

async function postJSON(url, body) {
  const resp = await fetch(url, {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify(body || {}),
  });
  return {ok: resp.ok, data: await resp.json()};
}

$("ask-btn").addEventListener("click", async () => {
  const question = $("question").value;
  addText("question", question.trim() ? question : "(blank question)");
  $("ask-btn").disabled = true;
  try {
    const {ok, data} = await postJSON("/ask", {question});
    if (!ok) {
      addText("error", data.message);
      return;
    }
    addMessage(data.is_error ? "answer error" : "answer", data.html);
    $("question").value = "";
  } catch (err) {
    addText("error", "Request failed: " + err);
  } finally {
    $("ask-btn").disabled = false;
  }
});

$("question").addEventListener("keydown", (e) => {
  if (e.key === "Enter") $("ask-btn").click();
});

$("summarize-btn").addEventListener("click", async () => {
  addText("question", "Summarize the documents");
  try {
    const {ok, data} = await postJSON("/summarize");
    if (!ok) {
      addText("error", data.message);
      return;
    }
    addMessage("answer", data.html);
  } catch (err) {
    addText("error", "Request failed: " + err);
  }
});

$("export-btn").addEventListener("click", async () => {
  const resp = await fetch("/export", {method: "POST"});
  const type = resp.headers.get("Content-Type") || "";
  if (type.includes("application/json")) {
    const data = await resp.json();
    $("ask-status").textContent = data.message;
    return;
  }
  const blob = await resp.blob();
  const disposition = resp.headers.get("Content-Disposition") || "";
  const match = disposition.match(/filename="?([^";]+)"?/);
  const a = document.createElement("a");
  a.href = URL.createObjectURL(blob);
  a.download = match ? match[1] : "chat_export.txt";
  a.click();
  URL.revokeObjectURL(a.href);
});

$("clear-btn").addEventListener("click", async () => {
  const {data} = await postJSON("/clear");
  chat.innerHTML = "";
  $("ask-status").textContent = data.message;
});
</script>
</body>
</html>`

// handleIndex serves the single-page UI.
func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, indexHTML)
}
