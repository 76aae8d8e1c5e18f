package email

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

// ActivationSubject is the subject line of the account activation mail.
const ActivationSubject = "DersPlan hesabınızı etkinleştirin"

var activationTmpl = template.Must(template.New("activation").Parse(`<p>Merhaba,</p>
<p>DersPlan hesabınızı etkinleştirmek için aşağıdaki bağlantıya tıklayın:</p>
<p><a href="{{.Link}}">Hesabımı etkinleştir</a></p>
<p>Bağlantı {{.Hours}} saat geçerlidir. Bu isteği siz yapmadıysanız bu e-postayı yok sayabilirsiniz.</p>`))

// ActivationLink builds the link a teacher follows to activate their account.
func ActivationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/activate?token=" + url.QueryEscape(token)
}

// ActivationEmail builds the activation mail for to.
// PRE: link is absolute; validHours > 0
func ActivationEmail(to, link string, validHours int) (SendRequest, error) {
	var buf bytes.Buffer
	err := activationTmpl.Execute(&buf, struct {
		Link  string
		Hours int
	}{link, validHours})
	if err != nil {
		return SendRequest{}, err
	}
	return SendRequest{To: []string{to}, Subject: ActivationSubject, HTML: buf.String(), Category: "activation"}, nil
}
