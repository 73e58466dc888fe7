// Package report renders the weekly organization digest and delivers it
// over SES.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/ignite/campaign-intelligence/internal/analytics"
)

// Digest is the data bound to the digest template.
type Digest struct {
	OrganizationID string                          `json:"org_id"`
	GeneratedAt    time.Time                       `json:"generated_at"`
	Patterns       analytics.PatternReport         `json:"patterns"`
	Forecast       *analytics.OrganizationForecast `json:"forecast,omitempty"`
}

// Subject is the e-mail subject line for the digest.
func (d Digest) Subject() string {
	return fmt.Sprintf("Weekly campaign insights - %s", d.GeneratedAt.UTC().Format("Jan 2, 2006"))
}

// DefaultTemplate is used when no template path is configured.
const DefaultTemplate = `<h1>Campaign insights for the week of {{ week }}</h1>
<p>{{ patterns.total_campaigns_analyzed }} campaigns analyzed.</p>
{% if forecast %}
<h2>Next {{ forecast.forecast_period }} days</h2>
<ul>
  <li>Spend: {{ forecast.organization_predictions.total_spend | currency }}</li>
  <li>Revenue: {{ forecast.organization_predictions.total_revenue | currency }}</li>
  <li>Conversions: {{ forecast.organization_predictions.total_conversions | number_with_delimiter }}</li>
  <li>ROI: {{ forecast.organization_predictions.predicted_roi | percentage }}</li>
</ul>
{% endif %}
{% for item in patterns.insights.items %}
<h3>{{ item.insight }}</h3>{% if item.interpretation %}
<p>{{ item.interpretation }}</p>{% endif %}
{% endfor %}
{% if patterns.recommendations.size > 0 %}
<h2>Recommendations</h2>
<ol>
{% for rec in patterns.recommendations %}  <li><strong>[{{ rec.priority | upcase }}]</strong> {{ rec.recommendation }} - {{ rec.reason }}</li>
{% endfor %}</ol>
{% else %}
<p>{{ patterns.insights.message | default: "No recommendations this week." }}</p>
{% endif %}`

// Renderer renders digests with a parsed liquid template.
type Renderer struct {
	engine *liquid.Engine
	tpl    *liquid.Template
}

// NewRenderer parses source with the digest filters registered.
func NewRenderer(source string) (*Renderer, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)
	tpl, err := engine.ParseString(source)
	if err != nil {
		return nil, fmt.Errorf("parsing digest template: %w", err)
	}
	return &Renderer{engine: engine, tpl: tpl}, nil
}

// LoadRenderer reads the template at path, or uses DefaultTemplate when
// path is empty.
func LoadRenderer(path string) (*Renderer, error) {
	if path == "" {
		return NewRenderer(DefaultTemplate)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading digest template: %w", err)
	}
	return NewRenderer(string(data))
}

// Render binds d by its JSON field names and renders the template.
func (r *Renderer) Render(d Digest) (string, error) {
	bindings, err := toBindings(d)
	if err != nil {
		return "", err
	}
	bindings["week"] = d.GeneratedAt.UTC().Format("January 2, 2006")
	out, serr := r.tpl.RenderString(bindings)
	if serr != nil {
		return "", fmt.Errorf("rendering digest: %w", serr)
	}
	return strings.TrimSpace(out), nil
}

func toBindings(v any) (liquid.Bindings, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding digest: %w", err)
	}
	var b liquid.Bindings
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding digest: %w", err)
	}
	return b, nil
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// withDelimiter inserts thousands separators into the integer part of s.
func withDelimiter(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}

func registerFilters(engine *liquid.Engine) {
	// {{ spend | currency }} => $1,234.50
	engine.RegisterFilter("currency", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		s := withDelimiter(strconv.FormatFloat(f, 'f', 2, 64))
		if strings.HasPrefix(s, "-") {
			return "-$" + s[1:]
		}
		return "$" + s
	})

	// {{ conversions | number_with_delimiter }} => 12,345
	engine.RegisterFilter("number_with_delimiter", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return withDelimiter(strconv.FormatFloat(f, 'f', -1, 64))
	})

	// {{ roi | percentage }} => 125.5%
	engine.RegisterFilter("percentage", func(value interface{}) string {
		f, ok := toFloat(value)
		if !ok {
			return fmt.Sprintf("%v", value)
		}
		return strconv.FormatFloat(f, 'f', -1, 64) + "%"
	})
}
