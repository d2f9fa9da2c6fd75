package i18n

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
)

// Vars are the values substituted into a template. Ints, decimals and times
// are formatted for the resolved locale, strings are used as given.
type Vars map[string]any

// VarDays is formatted as a plural ("3 days") and exposed to templates as
// {daysText}. The raw number stays available as {days}.
const VarDays = "days"

var placeholderRe = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

// Email is the rendered email for a notification.
type Email struct {
	Subject string
	HTML    string
	Text    string
}

// Composed is the rendered copy for one notification.
type Composed struct {
	Locale      string
	Title       string
	Message     string
	ActionLabel string
	// Email is nil when the event never emails or no template could be found.
	Email *Email
	// Degraded is set when no template existed in any locale and a generic
	// message was produced instead.
	Degraded bool
}

// Composer renders notification copy from the built-in catalog.
type Composer struct {
	fallback string
	matcher  language.Matcher
	layout   *template.Template
}

// NewComposer creates a composer that falls back to fallbackLocale when a
// recipient's locale is unknown or a template is missing in it. An
// unsupported fallback is replaced by English.
func NewComposer(fallbackLocale string) *Composer {
	fallback := "en"
	if _, ok := catalog[baseOf(fallbackLocale)]; ok {
		fallback = baseOf(fallbackLocale)
	}

	// The first supported tag is what the matcher returns on no match.
	supported := []language.Tag{language.Make(fallback)}
	for _, loc := range []string{"en", "fr", "es"} {
		if loc != fallback {
			supported = append(supported, language.Make(loc))
		}
	}

	return &Composer{
		fallback: fallback,
		matcher:  language.NewMatcher(supported),
		layout:   template.Must(template.New("email").Parse(emailLayout)),
	}
}

// ResolveLocale maps a free-form locale ("fr-CA", "es_MX", "") to one of the
// supported locales.
func (c *Composer) ResolveLocale(raw string) string {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "_", "-")
	if raw == "" {
		return c.fallback
	}
	tag, _ := language.MatchStrings(c.matcher, raw)
	return baseOf(tag.String())
}

// Compose renders the template for (eventType, variant) in locale. A variant
// without its own template uses the type's default template. A template
// missing from locale is taken from the fallback locale.
func (c *Composer) Compose(eventType domain.NotificationType, variant, locale string, vars Vars, actionURL string) Composed {
	loc := c.ResolveLocale(locale)

	tmpl, usedLoc, ok := c.lookup(eventType, variant, loc)
	if !ok {
		logger.Warn("No notification template in any locale",
			"type", eventType, "variant", variant, "locale", loc)
		return Composed{
			Locale:   loc,
			Title:    string(eventType),
			Message:  locales[loc].GenericMessage,
			Degraded: true,
		}
	}
	if usedLoc != loc {
		logger.Debug("Notification template missing, using fallback locale",
			"type", eventType, "variant", variant, "locale", loc, "fallback", usedLoc)
	}

	values := c.format(usedLoc, vars)
	out := Composed{
		Locale:      usedLoc,
		Title:       substitute(tmpl.Title, values),
		Message:     substitute(tmpl.Message, values),
		ActionLabel: substitute(tmpl.ActionLabel, values),
	}

	if tmpl.EmailBody != "" {
		email, err := c.renderEmail(usedLoc, tmpl, values, actionURL, out.ActionLabel)
		if err != nil {
			logger.Error("Failed to render notification email", "type", eventType, "error", err)
		} else {
			out.Email = email
		}
	}
	return out
}

func (c *Composer) lookup(eventType domain.NotificationType, variant, loc string) (Template, string, bool) {
	for _, l := range []string{loc, c.fallback} {
		byKey := catalog[l]
		if t, ok := byKey[templateKey{eventType, variant}]; ok {
			return t, l, true
		}
		if variant != "" {
			if t, ok := byKey[templateKey{eventType, ""}]; ok {
				return t, l, true
			}
		}
	}
	return Template{}, "", false
}

func (c *Composer) format(loc string, vars Vars) map[string]string {
	data := locales[loc]
	p := message.NewPrinter(language.Make(loc))

	values := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		switch val := v.(type) {
		case nil:
		case string:
			values[k] = val
		case int:
			values[k] = p.Sprintf("%d", val)
		case int64:
			values[k] = p.Sprintf("%d", val)
		case decimal.Decimal:
			values[k] = formatMoney(p, val)
		case time.Time:
			values[k] = val.UTC().Format(data.DateLayout)
		case fmt.Stringer:
			values[k] = val.String()
		default:
			values[k] = fmt.Sprint(val)
		}
	}

	if days, ok := vars[VarDays].(int); ok {
		values["daysText"] = pluralDays(data, days)
	}
	return values
}

// formatMoney renders an amount with two fraction digits and the locale's
// grouping. The digits come from the decimal itself, never a float.
func formatMoney(p *message.Printer, val decimal.Decimal) string {
	fixed := val.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, cents, _ := strings.Cut(fixed, ".")

	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		// Beyond int64: keep every digit, ungrouped.
		return sign + whole + decimalSeparator(p) + cents
	}
	return sign + p.Sprintf("%d", n) + decimalSeparator(p) + cents
}

func decimalSeparator(p *message.Printer) string {
	return strings.Trim(p.Sprintf("%.1f", 1.5), "15")
}

func pluralDays(data localeData, days int) string {
	if days == 1 || days == -1 {
		return data.DayOne
	}
	return fmt.Sprintf(data.DayOther, days)
}

// substitute fills {name} placeholders. Unknown names are left as written so
// a missing value is visible instead of silently blank.
func substitute(s string, values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := values[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

type emailView struct {
	Lang        string
	Subject     string
	Greeting    string
	Paragraphs  [][]string
	ActionURL   string
	ActionLabel string
	Footer      string
}

func (c *Composer) renderEmail(loc string, tmpl Template, values map[string]string, actionURL, actionLabel string) (*Email, error) {
	data := locales[loc]
	subject := substitute(tmpl.EmailSubject, values)
	body := substitute(tmpl.EmailBody, values)

	greeting := ""
	if values["ownerName"] != "" {
		greeting = substitute(data.Greeting, values)
	}

	var paragraphs [][]string
	for _, para := range strings.Split(body, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			paragraphs = append(paragraphs, strings.Split(para, "\n"))
		}
	}

	view := emailView{
		Lang:        loc,
		Subject:     subject,
		Greeting:    greeting,
		Paragraphs:  paragraphs,
		ActionURL:   actionURL,
		ActionLabel: actionLabel,
		Footer:      data.Footer,
	}

	var html bytes.Buffer
	if err := c.layout.Execute(&html, view); err != nil {
		return nil, err
	}

	var text strings.Builder
	if greeting != "" {
		text.WriteString(greeting + "\n\n")
	}
	text.WriteString(body)
	if actionURL != "" {
		fmt.Fprintf(&text, "\n\n%s: %s", actionLabel, actionURL)
	}
	text.WriteString("\n\n-- \n" + data.Footer + "\n")

	return &Email{Subject: subject, HTML: html.String(), Text: text.String()}, nil
}

func baseOf(locale string) string {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}

const emailLayout = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #222; max-width: 600px; margin: 0 auto;">
{{- if .Greeting}}
<p>{{.Greeting}}</p>
{{- end}}
{{- range .Paragraphs}}
<p>{{range $i, $line := .}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
{{- end}}
{{- if .ActionURL}}
<p><a href="{{.ActionURL}}" style="display: inline-block; padding: 10px 16px; background: #1a73e8; color: #fff; text-decoration: none; border-radius: 4px;">{{.ActionLabel}}</a></p>
{{- end}}
<hr>
<p style="font-size: 12px; color: #888;">{{.Footer}}</p>
</body>
</html>
`
