package templates

import (
	"context"
	"strings"
	"time"
)

// Brand holds the fields every email footer shows.
type Brand struct {
	AppName    string
	SupportURL string
}

// Data is the set of fields the templates read. It is flattened to a map
// before it goes on the queue.
type Data struct {
	Name       string
	Email      string
	AppName    string
	SupportURL string
	VerifyURL  string
	ExpiresIn  string
	IP         string
	UserAgent  string
	Location   string
	Time       string
	Reason     string
}

type Option func(*Data)

func WithIP(ip string) Option        { return func(d *Data) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *Data) { d.UserAgent = ua } }
func WithReason(r string) Option     { return func(d *Data) { d.Reason = r } }

func WithTime(t time.Time) Option {
	return func(d *Data) { d.Time = t.UTC().Format("02 January 2006, 15:04 MST") }
}

func WithVerifyURL(url string, ttl time.Duration) Option {
	return func(d *Data) {
		d.VerifyURL = url
		d.ExpiresIn = ttl.String()
	}
}

// WithGeoFromIP resolves a location and, when the resolver knows the
// timezone, renders Time in it.
func WithGeoFromIP(ctx context.Context, r GeoResolver, ip string, at time.Time) Option {
	return func(d *Data) {
		if r == nil || strings.TrimSpace(ip) == "" {
			return
		}
		g, err := r.Lookup(ctx, ip)
		if err != nil {
			return
		}
		d.Location = FormatGeo(g)
		if g.Timezone == "" {
			return
		}
		if loc, err := time.LoadLocation(g.Timezone); err == nil {
			d.Time = at.In(loc).Format("02 January 2006, 15:04 MST")
		}
	}
}

func New(b Brand, name, email string, opts ...Option) Data {
	d := Data{Name: name, Email: email, AppName: b.AppName, SupportURL: b.SupportURL}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d Data) Map() map[string]any {
	m := map[string]any{}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("Name", d.Name)
	set("Email", d.Email)
	set("AppName", d.AppName)
	set("SupportURL", d.SupportURL)
	set("VerifyURL", d.VerifyURL)
	set("ExpiresIn", d.ExpiresIn)
	set("IP", d.IP)
	set("UserAgent", d.UserAgent)
	set("Location", d.Location)
	set("Time", d.Time)
	set("Reason", d.Reason)
	return m
}
