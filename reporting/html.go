package reporting

import (
	"encoding/json"
	"fmt"
	"strings"
)

// htmlTemplate is the report shell. The result JSON and the renderer
// are embedded into it so the document is self-contained.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Smoke Audit Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        h1 { color: #333; }
        table { border-collapse: collapse; width: 100%; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background: #4CAF50; color: white; }
        .score-null { color: #999; }
        .score-low { color: #f44336; }
        .score-high { color: #4CAF50; }
    </style>
</head>
<body>
    <h1>Smoke Audit Report</h1>
    <div id="report"></div>
    <script>
        window.__SMOKEHOUSE_RESULT__ = %%SMOKEHOUSE_JSON%%;
    </script>
    <script>%%SMOKEHOUSE_RENDERER%%</script>
</body>
</html>`

// rendererJS walks the embedded result object and builds the report
// table client-side.
const rendererJS = `(function () {
  var result = window.__SMOKEHOUSE_RESULT__;
  var root = document.getElementById('report');
  var table = document.createElement('table');
  table.innerHTML = '<tr><th>Category</th><th>Audit</th><th>Type</th><th>Score</th></tr>';
  result.categories.forEach(function (category) {
    category.audits.forEach(function (audit) {
      var row = table.insertRow();
      row.insertCell().textContent = category.title;
      row.insertCell().textContent = audit.title;
      row.insertCell().textContent = audit.type;
      var score = row.insertCell();
      if (audit.score === null) {
        score.textContent = 'n/a';
        score.className = 'score-null';
      } else {
        score.textContent = String(audit.score);
        score.className = audit.score >= 0.9 ? 'score-high' : 'score-low';
      }
    });
  });
  root.appendChild(table);
})();`

// jsonSanitizer escapes sequences that would break the embedding
// context: "<" so embedded JSON can never close the surrounding script
// tag early, and the U+2028/U+2029 separators, which are valid JSON but
// not valid JavaScript string content. encoding/json already escapes
// these when HTML escaping is on; the replacer keeps the guarantee
// independent of encoder settings.
var jsonSanitizer = strings.NewReplacer(
	"<", `\u003c`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// generateHTML embeds the result JSON and the renderer into the shell.
func generateHTML(result *AuditResult) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal audit result: %w", err)
	}

	doc := strings.Replace(htmlTemplate, "%%SMOKEHOUSE_JSON%%", jsonSanitizer.Replace(string(data)), 1)
	doc = strings.Replace(doc, "%%SMOKEHOUSE_RENDERER%%", rendererJS, 1)
	return doc, nil
}

// generateJSON renders the result as pretty-printed JSON.
func generateJSON(result *AuditResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal audit result: %w", err)
	}
	return string(data), nil
}
