package mailer

import (
	"bytes"
	"html/template"
)

const confirmationSubject = "Confirm your email address"

const confirmationText = `<p>Hello {{.Recipient}},</p>

<p>Thanks for signing up. Click the link below to confirm your email
address:</p>

<p><a href="{{.Link}}">{{.Link}}</a></p>

<p>The link is valid for 7 days. If you did not create an account, you can
ignore this message.</p>
`

var confirmationTmpl = template.Must(
	template.New("confirmation_email").Parse(confirmationText))

type confirmationData struct {
	Recipient string
	Link      string
}

func renderConfirmation(data confirmationData) (string, error) {
	var b bytes.Buffer
	if err := confirmationTmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
