package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/osteele/liquid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// DateLayout is how dates appear in the message.
const DateLayout = "2006-01-02"

// cleanupTemplate is the message asking the bookkeeper to post new payments and tidy
// up debtors with a zero or negative balance.
const cleanupTemplate = `Emne: Oprydning af debitorer - handling påkrævet

Hej [bogholder],

Jeg er i gang med at gennemgå vores debitorer.
Seneste bogførte indbetaling er fra {{ latest_payment }}.
Vil du bogføre nye indbetalinger og rydde op i følgende kunder:
{{ customers | join: ", " }}

Bedste hilsner
[Dit navn]`

// MessageRenderer renders the bookkeeper message.
type MessageRenderer struct {
	tpl *liquid.Template
	md  goldmark.Markdown
}

// NewMessageRenderer parses the message template.
func NewMessageRenderer() (*MessageRenderer, error) {
	engine := liquid.NewEngine()
	tpl, err := engine.ParseString(cleanupTemplate)
	if err != nil {
		return nil, fmt.Errorf("NewMessageRenderer: failed to parse template: %w", err)
	}

	return &MessageRenderer{
		tpl: tpl,
		md: goldmark.New(
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}, nil
}

// Message returns the plaintext message for a report.
func (m *MessageRenderer) Message(r *Report) (string, error) {
	customers := r.CleanupCustomers
	if customers == nil {
		customers = []string{}
	}

	out, err := m.tpl.RenderString(map[string]any{
		"latest_payment": r.LatestPayment.Format(DateLayout),
		"customers":      customers,
	})
	if err != nil {
		return "", fmt.Errorf("Message: failed to render template: %w", err)
	}
	return out, nil
}

// MessageHTML returns the message as an HTML fragment, headed by the logo when logoURL
// is set.
func (m *MessageRenderer) MessageHTML(r *Report, logoURL string) (string, error) {
	text, err := m.Message(r)
	if err != nil {
		return "", err
	}

	var src strings.Builder
	if logoURL != "" {
		fmt.Fprintf(&src, "![Logo](<%s>)\n\n", logoURL)
	}
	src.WriteString(text)

	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src.String()), &buf); err != nil {
		return "", fmt.Errorf("MessageHTML: failed to render HTML: %w", err)
	}
	return buf.String(), nil
}
