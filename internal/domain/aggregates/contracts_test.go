package aggregates

import "testing"

func TestContractOwns(t *testing.T) {
	c := Contract{Name: "Pitch.DisclosureAggregate", Tables: []string{"share_policy"}}
	if !c.Owns("share_policy") {
		t.Fatalf("expected share_policy to be owned")
	}
	if c.Owns("pitch") || (Contract{}).Owns("") {
		t.Fatalf("unexpected ownership")
	}
}
