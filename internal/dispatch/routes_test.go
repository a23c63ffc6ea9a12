package dispatch

import (
	"reflect"
	"testing"

	"github.com/gyaneshwarpardhi/notifyflow/internal/channel"
	"github.com/gyaneshwarpardhi/notifyflow/internal/template"
)

func TestUnroutedChannels(t *testing.T) {
	reg := channel.NewRegistry()
	reg.Register(&fakeAdapter{id: "email"})

	inactive := slaTemplate("sms")
	inactive.ID = "disabled"
	inactive.Active = false
	routed := slaTemplate("email")
	routed.ID = "routed"

	templates := template.NewRegistry([]template.Template{
		slaTemplate("email", "teams", "in_app"),
		routed,
		inactive,
	})

	got := UnroutedChannels(templates, reg)
	want := map[string][]string{"sla_breach": {"teams", "in_app"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UnroutedChannels() = %v, want %v", got, want)
	}

	if got := UnroutedChannels(template.NewRegistry(template.DefaultCatalogue()), channel.NewRegistry()); len(got) == 0 {
		t.Error("built-in templates with no adapters should be reported")
	}
}
