package event

import "testing"

func TestAccessors(t *testing.T) {
	ev := New(map[string]interface{}{
		"type":           "security",
		"affected_users": 12,
		"amount":         float64(10.5),
		"sla_breach":     true,
		"flag":           "true",
	})

	if s, ok := ev.String("type"); !ok || s != "security" {
		t.Errorf("String(type) = %q,%v", s, ok)
	}
	if _, ok := ev.String("affected_users"); ok {
		t.Error("String on a number should be absent")
	}
	if f, ok := ev.Float("affected_users"); !ok || f != 12 {
		t.Errorf("Float(affected_users) = %v,%v", f, ok)
	}
	if _, ok := ev.Float("missing"); ok {
		t.Error("Float(missing) should be absent")
	}
	if !ev.Bool("sla_breach") {
		t.Error("Bool(sla_breach) should be true")
	}
	if ev.Bool("flag") {
		t.Error("a string \"true\" is not a bool")
	}
	if ev.Bool("missing") {
		t.Error("Bool(missing) should be false")
	}
}

func TestText(t *testing.T) {
	ev := New(map[string]interface{}{
		"id":     float64(42),
		"ratio":  0.25,
		"name":   "deploy",
		"nilval": nil,
		"big":    1e20,
		"huge":   1e21,
		"count":  int64(9007199254740993),
		"flag":   true,
	})
	cases := map[string]string{
		"id":     "42",
		"ratio":  "0.25",
		"name":   "deploy",
		"nilval": "null",
		"big":    "100000000000000000000",
		"huge":   "1e+21",
		"count":  "9007199254740993",
		"flag":   "true",
	}
	for field, want := range cases {
		got, ok := ev.Text(field)
		if !ok || got != want {
			t.Errorf("Text(%s) = %q,%v want %q", field, got, ok, want)
		}
	}
	if got, ok := ev.Text("missing"); ok || got != "" {
		t.Errorf("Text(missing) = %q,%v", got, ok)
	}
}

func TestNilEvent(t *testing.T) {
	var ev *Event
	if _, ok := ev.Get("x"); ok {
		t.Error("nil event should have no fields")
	}
	if New(nil).Fields == nil {
		t.Error("New(nil) should allocate a map")
	}
}
