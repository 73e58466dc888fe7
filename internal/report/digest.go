package report

import "context"

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, html string) (string, error)
}

// Digester renders digests and mails them to a fixed recipient list.
type Digester struct {
	renderer   *Renderer
	mailer     Mailer
	recipients []string
}

// NewDigester binds a renderer and mailer to the recipient list.
func NewDigester(r *Renderer, m Mailer, recipients []string) *Digester {
	return &Digester{renderer: r, mailer: m, recipients: recipients}
}

// Send renders d and mails it.
func (g *Digester) Send(ctx context.Context, d Digest) error {
	body, err := g.renderer.Render(d)
	if err != nil {
		return err
	}
	_, err = g.mailer.Send(ctx, g.recipients, d.Subject(), body)
	return err
}
