package email

import (
	"context"
	"errors"
	"testing"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
)

type fakeProvider struct {
	name       string
	configured bool
	err        error
	sent       []*Request
}

func (f *fakeProvider) Name() string       { return f.name }
func (f *fakeProvider) IsConfigured() bool { return f.configured }

func (f *fakeProvider) Send(_ context.Context, req *Request) error {
	f.sent = append(f.sent, req)
	return f.err
}

func newProviders(t *testing.T, primary string, ps ...*fakeProvider) *Providers {
	t.Helper()
	r := NewProviders()
	var rest []string
	for _, p := range ps {
		r.Register(p)
		if p.name != primary {
			rest = append(rest, p.name)
		}
	}
	if err := r.SetPrimary(primary); err != nil {
		t.Fatal(err)
	}
	if err := r.SetFallback(rest...); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestProviders_FallbackOnFailure(t *testing.T) {
	ses := &fakeProvider{name: "ses", configured: true, err: errors.New("throttled")}
	resend := &fakeProvider{name: "resend", configured: true}
	r := newProviders(t, "ses", ses, resend)

	if err := r.Send(context.Background(), &Request{To: []string{"a@b.c"}}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(ses.sent) != 1 || len(resend.sent) != 1 {
		t.Errorf("ses=%d resend=%d sends", len(ses.sent), len(resend.sent))
	}
}

func TestProviders_SkipsUnconfiguredPrimary(t *testing.T) {
	ses := &fakeProvider{name: "ses"}
	resend := &fakeProvider{name: "resend", configured: true}
	r := newProviders(t, "ses", ses, resend)

	if err := r.Send(context.Background(), &Request{To: []string{"a@b.c"}}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(ses.sent) != 0 || len(resend.sent) != 1 {
		t.Errorf("ses=%d resend=%d sends", len(ses.sent), len(resend.sent))
	}
}

func TestProviders_AllFailReturnsPrimaryError(t *testing.T) {
	primaryErr := errors.New("primary down")
	r := newProviders(t, "ses",
		&fakeProvider{name: "ses", configured: true, err: primaryErr},
		&fakeProvider{name: "resend", configured: true, err: errors.New("fallback down")},
	)
	if err := r.Send(context.Background(), &Request{}); !errors.Is(err, primaryErr) {
		t.Errorf("Send() error = %v, want primary error", err)
	}
}

func TestProviders_NoneConfigured(t *testing.T) {
	r := newProviders(t, "ses", &fakeProvider{name: "ses"})
	if err := r.Send(context.Background(), &Request{}); err == nil {
		t.Error("Send() should fail with no configured provider")
	}
	if err := r.SetPrimary("smtp"); err == nil {
		t.Error("SetPrimary of unregistered provider should fail")
	}
}

func TestAdapter_Send(t *testing.T) {
	p := &fakeProvider{name: "ses", configured: true}
	a := New("alerts@example.org", newProviders(t, "ses", p))
	if a.Channel() != "email" {
		t.Errorf("Channel() = %s", a.Channel())
	}

	err := a.Send(context.Background(), channel.Message{
		Recipient: "u1",
		Address:   "ana@example.org, ops@example.org",
		Title:     "SLA breached",
		Body:      "Request #1 exceeded its SLA",
		Priority:  "urgent",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	req := p.sent[0]
	if req.From != "alerts@example.org" || len(req.To) != 2 || req.Subject != "[URGENT] SLA breached" {
		t.Errorf("request = %+v", req)
	}
}

func TestAdapter_InvalidAddress(t *testing.T) {
	p := &fakeProvider{name: "ses", configured: true}
	a := New("alerts@example.org", newProviders(t, "ses", p))
	for _, addr := range []string{"", "user-42"} {
		if err := a.Send(context.Background(), channel.Message{Recipient: "user-42", Address: addr}); err == nil {
			t.Errorf("Send(address=%q) should fail", addr)
		}
	}
	if len(p.sent) != 0 {
		t.Error("provider should not be called for invalid addresses")
	}
}

func TestNewResendProvider_EmptyKey(t *testing.T) {
	if NewResendProvider("").IsConfigured() {
		t.Error("empty api key should leave provider unconfigured")
	}
}
