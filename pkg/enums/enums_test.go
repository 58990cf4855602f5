package enums

import "testing"

func TestParseNotifyType(t *testing.T) {
	for _, nt := range NotifyTypes() {
		got, err := ParseNotifyType(string(nt))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", nt, err)
		}
		if got != nt {
			t.Fatalf("expected %q got %q", nt, got)
		}
	}
	if _, err := ParseNotifyType("foo"); err == nil {
		t.Fatal("expected error for unknown notify type")
	}
	if NotifyType("foo").IsValid() {
		t.Fatal("foo must not be valid")
	}
	if !NotifyAddMember.IsValid() {
		t.Fatal("add_member must be valid")
	}
}

func TestNotifyTypesReturnsCopy(t *testing.T) {
	types := NotifyTypes()
	types[0] = "mutated"
	if NotifyTypes()[0] != NotifyAddMember {
		t.Fatal("allow-list must not be mutable through NotifyTypes")
	}
}

func TestParseTargetKind(t *testing.T) {
	if kind, err := ParseTargetKind("Doc"); err != nil || kind != TargetDoc {
		t.Fatalf("expected Doc, got %q err=%v", kind, err)
	}
	if _, err := ParseTargetKind("Group"); err == nil {
		t.Fatal("Group cannot be a notification target")
	}
	if _, err := ParseTargetKind("doc"); err == nil {
		t.Fatal("kinds are case sensitive")
	}
}
