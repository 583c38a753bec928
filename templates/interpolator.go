package templates

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Context contains all the data available for variable substitution
type Context struct {
	URL      string
	Host     string
	Title    string
	Body     string
	Interval int // minutes
	Blocks   int
	Now      time.Time
}

// Interpolate replaces {{variable}} placeholders in a template string with actual values
func Interpolate(template string, ctx *Context) string {
	return interpolate(template, ctx, false)
}

// InterpolateURL replaces {{variable}} placeholders and URL-encodes the values for safe use in URLs
func InterpolateURL(template string, ctx *Context) string {
	return interpolate(template, ctx, true)
}

func interpolate(template string, ctx *Context, urlEncode bool) string {
	encode := func(s string) string {
		if urlEncode {
			return url.QueryEscape(s)
		}
		return s
	}

	now := ctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := strings.NewReplacer(
		"{{url}}", encode(ctx.URL),
		"{{host}}", encode(ctx.Host),
		"{{title}}", encode(ctx.Title),
		"{{body}}", encode(ctx.Body),
		"{{interval}}", strconv.Itoa(ctx.Interval),
		"{{blocks}}", strconv.Itoa(ctx.Blocks),
		"{{timestamp}}", strconv.FormatInt(now.Unix(), 10),
		"{{date}}", now.Format("2006-01-02"),
		"{{datetime}}", now.Format(time.RFC3339),
		"{{time}}", now.Format("15:04"),
	)
	return r.Replace(template)
}
