package email

import (
	"bytes"
	"fmt"
	"html/template"
)

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(`<h1>Welcome to ReficulBot, {{.Name}}!</h1>
<p>Thank you for joining ReficulBot. We're excited to help you engage with your customers using AI.</p>
<p>Here's what you can do next:</p>
<ul>
  <li>Create your first AI Agent</li>
  <li>Connect your WhatsApp or Instagram</li>
  <li>Import your contacts</li>
</ul>
<p>If you have any questions, our support team is here to help.</p>
<p>Best regards,<br>The ReficulBot Team</p>`))

	inviteTmpl = template.Must(template.New("invite").Parse(`<h2>You've been added to {{.Workspace}}</h2>
<p>{{.Inviter}} added you to the <strong>{{.Workspace}}</strong> workspace on ReficulBot.</p>
<p><a href="{{.URL}}">Open ReficulBot</a></p>`))

	escalationTmpl = template.Must(template.New("escalation").Parse(`<h2>Conversation Escalated</h2>
<p>A conversation has been escalated and requires your attention.</p>
<p><strong>Customer Message:</strong></p>
<blockquote>{{.Message}}</blockquote>
<p><a href="{{.URL}}">View Conversation</a></p>`))
)

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
