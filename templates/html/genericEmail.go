package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail wraps body in the portal's mail layout. subject is shown
// in the header banner; body is plain text, escaped, with newlines kept.
func RenderGenericEmail(subject, body string) string {
	htmlBody := strings.ReplaceAll(html.EscapeString(body), "\n", "<br>")
	return renderLayout(subject, htmlBody)
}

// renderLayout expects bodyHTML to be escaped already
func renderLayout(subject, bodyHTML string) string {
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 640px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #006a4e; padding: 32px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 32px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .content table { width: 100%%; border-collapse: collapse; font-size: 13px; }
    .content th, .content td { text-align: left; padding: 6px 8px; border-bottom: 1px solid #e5e7eb; }
    .footer { padding: 24px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>Relief Portal. You receive this e-mail because you administer the portal.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, bodyHTML)
}
