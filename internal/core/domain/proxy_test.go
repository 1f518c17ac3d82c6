package domain

import "testing"

func TestParseProxy(t *testing.T) {
	tests := []struct {
		in     string
		ok     bool
		expect Proxy
	}{
		{"127.0.0.1:8080", true, Proxy{Host: "127.0.0.1", Port: 8080}},
		{"proxy.example.com:3128", true, Proxy{Host: "proxy.example.com", Port: 3128}},
		{" 10.0.0.2:1 ", true, Proxy{Host: "10.0.0.2", Port: 1}},
		{"", false, Proxy{}},
		{"127.0.0.1", false, Proxy{}},
		{"user:pass:127.0.0.1:8080", false, Proxy{}},
		{"127.0.0.1:8080:extra", false, Proxy{}},
		{":8080", false, Proxy{}},
		{"127.0.0.1:", false, Proxy{}},
		{"127.0.0.1:http", false, Proxy{}},
		{"127.0.0.1:70000", false, Proxy{}},
		{"127.0.0.1:0", false, Proxy{}},
	}

	for _, tt := range tests {
		got, ok := ParseProxy(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseProxy(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if got != tt.expect {
			t.Errorf("ParseProxy(%q) = %+v, want %+v", tt.in, got, tt.expect)
		}
	}
}

func TestProxy_URL(t *testing.T) {
	p := Proxy{Host: "10.1.2.3", Port: 8080}
	if p.URL() != "http://10.1.2.3:8080" {
		t.Errorf("unexpected url %s", p.URL())
	}
}

func TestProfile_PowerPercentage(t *testing.T) {
	p := Profile{Balance: 12.5, Power: 500, PowerCapacity: 2000}
	if got := p.PowerPercentage(); got != 25 {
		t.Errorf("expected 25, got %v", got)
	}

	empty := Profile{}
	if got := empty.PowerPercentage(); got != 0 {
		t.Errorf("expected 0 for zero capacity, got %v", got)
	}
}

func TestAccount_Normalize(t *testing.T) {
	a := Account{AuthData: "token"}.Normalize()
	if a.Username != DefaultUsername {
		t.Errorf("expected default username, got %q", a.Username)
	}

	b := Account{Username: "alice"}.Normalize()
	if b.Username != "alice" {
		t.Errorf("username overwritten: %q", b.Username)
	}
}

func TestCycleReport_Counts(t *testing.T) {
	r := CycleReport{Results: []CycleResult{
		{Account: "a", Success: true},
		{Account: "b", ErrorKind: ErrorKindAuthFailure},
		{Account: "c", ErrorKind: ErrorKindInsufficientResource},
	}}

	if r.Succeeded() != 1 || r.Failed() != 2 || !r.AnySuccess() {
		t.Errorf("unexpected counts: succeeded=%d failed=%d", r.Succeeded(), r.Failed())
	}

	if (CycleReport{}).AnySuccess() {
		t.Error("empty report should not report success")
	}
}
