// Package templates renders the server-side pages. The app itself is a single
// page bundle served from /static; the server only renders its shell.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Index is the single page app shell
func Index(title string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>`+templ.EscapeString(title)+`</title>
<link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Roboto:wght@400;500;700&display=swap">
<link rel="stylesheet" href="/static/main.css">
</head>
<body>
<noscript>You need to enable JavaScript to run this app.</noscript>
<div id="root"></div>
<script src="/static/main.js"></script>
</body>
</html>
`)
		return err
	})
}
